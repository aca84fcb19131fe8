package api

import (
	"context"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

func (c *Client) ListBoards(ctx context.Context) ([]model.Board, error) {
	var out []model.Board
	if err := c.doJSON(ctx, http.MethodGet, "boards/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBoard fetches one board with memberships (and nested lists when the
// backend includes them).
func (c *Client) GetBoard(ctx context.Context, id int) (model.Board, error) {
	var out model.Board
	err := c.doJSON(ctx, http.MethodGet, idPath("boards", id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateBoard(ctx context.Context, in model.BoardInput) (model.Board, error) {
	var out model.Board
	err := c.doJSON(ctx, http.MethodPost, "boards/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateBoard(ctx context.Context, id int, in model.BoardInput) (model.Board, error) {
	var out model.Board
	err := c.doJSON(ctx, http.MethodPatch, idPath("boards", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteBoard(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("boards", id), nil, nil, nil)
}
