// Package alert keeps short-lived user-facing messages. Alerts expire on
// their own after a TTL; nothing needs to dismiss them.
package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// DefaultTTL is how long an alert stays visible.
const DefaultTTL = 3 * time.Second

type Alert struct {
	ID        string
	Kind      Kind
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Center collects alerts. The zero value is not usable; call New.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	alerts []Alert
	subs   []chan Alert
}

type Option func(*Center)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

func WithTTL(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.ttl = d
		}
	}
}

func New(opts ...Option) *Center {
	c := &Center{ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Push records an alert and fans it out to subscribers. Slow subscribers
// miss alerts rather than block the caller.
func (c *Center) Push(kind Kind, message string) Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	a := Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.alerts = append(c.alerts, a)
	for _, ch := range c.subs {
		select {
		case ch <- a:
		default:
		}
	}
	return a
}

// Active returns live alerts in push order and drops expired ones.
func (c *Center) Active() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	live := c.alerts[:0]
	for _, a := range c.alerts {
		if now.Before(a.ExpiresAt) {
			live = append(live, a)
		}
	}
	c.alerts = live
	return append([]Alert(nil), live...)
}

// Dismiss removes one alert. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.alerts {
		if a.ID == id {
			c.alerts = append(c.alerts[:i], c.alerts[i+1:]...)
			return
		}
	}
}

// Subscribe returns a buffered channel that receives every later Push.
func (c *Center) Subscribe() <-chan Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Alert, 16)
	c.subs = append(c.subs, ch)
	return ch
}
