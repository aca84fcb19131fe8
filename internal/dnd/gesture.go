package dnd

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrGestureActive is returned by Start while another drag is running.
	ErrGestureActive = errors.New("a drag is already in progress")
	// ErrNoGesture is returned by Drop when nothing is being dragged.
	ErrNoGesture = errors.New("nothing is being dragged")
)

type State int

const (
	Idle State = iota
	Dragging
	Reconciling
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Reconciling:
		return "reconciling"
	}
	return "idle"
}

type ItemKind int

const (
	CardItem ItemKind = iota
	ListItem
)

// Item is what is being dragged. ListID is the card's list at pick-up time
// and unused for lists.
type Item struct {
	Kind   ItemKind
	ID     int
	ListID int
}

// Mover persists a drop. The board store implements it.
type Mover interface {
	MoveCard(ctx context.Context, cardID, srcListID, dstListID, destIndex int) error
	MoveList(ctx context.Context, boardID, from, to int) error
}

// Outcome reports what a drop did. Moved is false for aborted and no-op
// drops.
type Outcome struct {
	Moved bool
	Dest  Destination
	From  int // list drags only
}

// Gesture is a single-pointer drag: Idle -> Dragging -> Reconciling -> Idle,
// or Dragging -> Idle on cancel or an unresolvable drop.
type Gesture struct {
	boardID  int
	resolver *Resolver
	mover    Mover

	mu    sync.Mutex
	state State
	item  Item
}

func NewGesture(boardID int, r *Resolver, m Mover) *Gesture {
	if r == nil {
		r = DefaultResolver()
	}
	return &Gesture{boardID: boardID, resolver: r, mover: m}
}

func (g *Gesture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Item returns the dragged item while a drag is running.
func (g *Gesture) Item() (Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.item, g.state != Idle
}

func (g *Gesture) Start(it Item) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Idle {
		return ErrGestureActive
	}
	g.state = Dragging
	g.item = it
	return nil
}

// Cancel ends a drag without moving anything. It reports false when there
// was no drag to cancel or the drop is already being saved.
func (g *Gesture) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Dragging {
		return false
	}
	g.reset()
	return true
}

// Drop resolves the destination and hands a valid move to the Mover. The
// gesture stays in Reconciling until the Mover returns.
func (g *Gesture) Drop(ctx context.Context, s Scene, d Drop) (Outcome, error) {
	g.mu.Lock()
	if g.state != Dragging {
		g.mu.Unlock()
		return Outcome{}, ErrNoGesture
	}
	it := g.item

	var (
		out  Outcome
		move func() error
	)
	switch it.Kind {
	case ListItem:
		from, to, ok := ResolveList(s.Board, it.ID, d.Target)
		if !ok || from == to {
			g.reset()
			g.mu.Unlock()
			return Outcome{}, nil
		}
		out = Outcome{Moved: true, From: from, Dest: Destination{ListID: it.ID, Index: to}}
		move = func() error { return g.mover.MoveList(ctx, g.boardID, from, to) }
	default:
		dest, ok := g.resolver.Resolve(s, d)
		if !ok || g.inPlace(s, it, dest) {
			g.reset()
			g.mu.Unlock()
			return Outcome{}, nil
		}
		out = Outcome{Moved: true, Dest: dest}
		move = func() error { return g.mover.MoveCard(ctx, it.ID, it.ListID, dest.ListID, dest.Index) }
	}
	g.state = Reconciling
	g.mu.Unlock()

	err := move()

	g.mu.Lock()
	g.reset()
	g.mu.Unlock()
	return out, err
}

// inPlace reports a drop that would leave the card where it is.
func (g *Gesture) inPlace(s Scene, it Item, dest Destination) bool {
	if dest.ListID != it.ListID {
		return false
	}
	l := s.Board.FindList(it.ListID)
	if l == nil {
		return false
	}
	cur := l.CardIndex(it.ID)
	return cur == dest.Index || (cur == len(l.Cards)-1 && dest.Index >= len(l.Cards))
}

func (g *Gesture) reset() {
	g.state = Idle
	g.item = Item{}
}
