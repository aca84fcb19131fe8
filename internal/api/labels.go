package api

import (
	"context"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

func (c *Client) ListLabels(ctx context.Context, boardID int) ([]model.Label, error) {
	var out []model.Label
	if err := c.doJSON(ctx, http.MethodGet, "labels/", intQuery("board", boardID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateLabel(ctx context.Context, in model.Label) (model.Label, error) {
	var out model.Label
	err := c.doJSON(ctx, http.MethodPost, "labels/", nil, in, &out)
	return out, err
}
