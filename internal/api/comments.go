package api

import (
	"context"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

type commentInput struct {
	Card int    `json:"card"`
	Text string `json:"text"`
}

func (c *Client) ListComments(ctx context.Context, cardID int) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.doJSON(ctx, http.MethodGet, "comments/", intQuery("card", cardID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, cardID int, text string) (model.Comment, error) {
	var out model.Comment
	err := c.doJSON(ctx, http.MethodPost, "comments/", nil, commentInput{Card: cardID, Text: text}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("comments", id), nil, nil, nil)
}
