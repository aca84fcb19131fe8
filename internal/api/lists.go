package api

import (
	"context"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

// ListLists returns the lists of a board.
func (c *Client) ListLists(ctx context.Context, boardID int) ([]model.List, error) {
	var out []model.List
	if err := c.doJSON(ctx, http.MethodGet, "lists/", intQuery("board", boardID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateList(ctx context.Context, in model.ListInput) (model.List, error) {
	var out model.List
	err := c.doJSON(ctx, http.MethodPost, "lists/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateList(ctx context.Context, id int, in model.ListInput) (model.List, error) {
	var out model.List
	err := c.doJSON(ctx, http.MethodPatch, idPath("lists", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteList(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("lists", id), nil, nil, nil)
}
