package api

import (
	"context"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

// ListCards returns the cards of one list.
func (c *Client) ListCards(ctx context.Context, listID int) ([]model.Card, error) {
	var out []model.Card
	if err := c.doJSON(ctx, http.MethodGet, "cards/", intQuery("list", listID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCard needs at least List and Title set.
func (c *Client) CreateCard(ctx context.Context, in model.CardInput) (model.Card, error) {
	var out model.Card
	err := c.doJSON(ctx, http.MethodPost, "cards/", nil, in, &out)
	return out, err
}

// UpdateCard patches the fields set in in. Moving a card is an update of
// its List field.
func (c *Client) UpdateCard(ctx context.Context, id int, in model.CardInput) (model.Card, error) {
	var out model.Card
	err := c.doJSON(ctx, http.MethodPatch, idPath("cards", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteCard(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("cards", id), nil, nil, nil)
}
