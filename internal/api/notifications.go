package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.doJSON(ctx, http.MethodGet, "notifications/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationsRead marks every notification of the user as read.
func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPatch, "notifications/mark-read/", nil, nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("notifications/%d/delete/", id), nil, nil, nil)
}
