package store

import (
	"context"
	"sync"
)

// cardQueue serializes persistence requests per card in the order the
// local mutations were applied. Each ticket waits for the one before it.
type cardQueue struct {
	mu    sync.Mutex
	tails map[int]chan struct{}
}

func newCardQueue() *cardQueue {
	return &cardQueue{tails: map[int]chan struct{}{}}
}

type ticket struct {
	q      *cardQueue
	cardID int
	prev   <-chan struct{}
	self   chan struct{}
}

// enqueue must be called while the mutation it persists is applied, so
// ticket order matches mutation order.
func (q *cardQueue) enqueue(cardID int) *ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &ticket{q: q, cardID: cardID, prev: q.tails[cardID], self: make(chan struct{})}
	q.tails[cardID] = t.self
	return t
}

// wait blocks until every earlier ticket for the card is done.
func (t *ticket) wait(ctx context.Context) error {
	if t.prev == nil {
		return nil
	}
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// done releases the next ticket. A ticket that gave up waiting still
// releases only after its predecessor has.
func (t *ticket) done() {
	release := func() {
		close(t.self)
		t.q.mu.Lock()
		if t.q.tails[t.cardID] == t.self {
			delete(t.q.tails, t.cardID)
		}
		t.q.mu.Unlock()
	}
	if t.prev == nil {
		release()
		return
	}
	select {
	case <-t.prev:
		release()
	default:
		go func() {
			<-t.prev
			release()
		}()
	}
}

// superseded reports whether a later move of the same card is queued.
func (t *ticket) superseded() bool {
	t.q.mu.Lock()
	defer t.q.mu.Unlock()
	return t.q.tails[t.cardID] != t.self
}

// pending reports whether any request for cardID is queued or in flight.
func (q *cardQueue) pending(cardID int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.tails[cardID]
	return ok
}
