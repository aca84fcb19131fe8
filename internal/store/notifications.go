package store

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/model"
)

type NotificationsBackend interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id int) error
}

// Filter values besides a notification type.
const (
	FilterAll    = "all"
	FilterUnread = "unread"
)

// Notifications is the user's notification feed. It is not tied to a
// board.
type Notifications struct {
	reporter
	api NotificationsBackend

	mu    sync.Mutex
	items []model.Notification
}

func NewNotifications(b NotificationsBackend, opts ...Option) *Notifications {
	return &Notifications{reporter: newReporter(opts), api: b}
}

func (n *Notifications) Fetch(ctx context.Context) ([]model.Notification, error) {
	items, err := n.api.ListNotifications(ctx)
	if err != nil {
		return nil, n.fail("load notifications", nil, err)
	}
	n.mu.Lock()
	n.items = items
	n.mu.Unlock()
	return n.All(), nil
}

func (n *Notifications) All() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.items...)
}

// MarkAllRead flips every cached read flag once the server agrees.
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	if err := n.api.MarkNotificationsRead(ctx); err != nil {
		return n.fail("mark notifications read", nil, err)
	}
	n.mu.Lock()
	for i := range n.items {
		n.items[i].Read = true
	}
	n.mu.Unlock()
	return nil
}

func (n *Notifications) Delete(ctx context.Context, id int) error {
	if err := n.api.DeleteNotification(ctx, id); err != nil {
		return n.fail("delete notification", log.Fields{"notification_id": id}, err)
	}
	n.mu.Lock()
	n.items = removeByID(n.items, id, func(x model.Notification) int { return x.ID })
	n.mu.Unlock()
	return nil
}

func (n *Notifications) Unread() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, it := range n.items {
		if !it.Read {
			c++
		}
	}
	return c
}

// Filter returns all, unread, or notifications of one type.
func (n *Notifications) Filter(f string) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, it := range n.items {
		switch {
		case f == "" || f == FilterAll:
		case f == FilterUnread:
			if it.Read {
				continue
			}
		case it.Type != f:
			continue
		}
		out = append(out, it)
	}
	return out
}
