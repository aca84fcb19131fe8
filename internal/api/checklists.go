package api

import (
	"context"
	"net/http"

	"github.com/Makepad-fr/board/internal/model"
)

// ChecklistItemInput is a partial checklist item.
type ChecklistItemInput struct {
	Checklist int     `json:"checklist,omitempty"`
	Card      int     `json:"card,omitempty"`
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type checklistInput struct {
	Card  int    `json:"card"`
	Title string `json:"title"`
}

func (c *Client) ListChecklists(ctx context.Context, cardID int) ([]model.Checklist, error) {
	var out []model.Checklist
	if err := c.doJSON(ctx, http.MethodGet, "checklists/", intQuery("card", cardID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateChecklist(ctx context.Context, cardID int, title string) (model.Checklist, error) {
	var out model.Checklist
	err := c.doJSON(ctx, http.MethodPost, "checklists/", nil, checklistInput{Card: cardID, Title: title}, &out)
	return out, err
}

func (c *Client) ListChecklistItems(ctx context.Context, cardID int) ([]model.ChecklistItem, error) {
	var out []model.ChecklistItem
	if err := c.doJSON(ctx, http.MethodGet, "checklist-items/", intQuery("card", cardID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateChecklistItem(ctx context.Context, in ChecklistItemInput) (model.ChecklistItem, error) {
	var out model.ChecklistItem
	err := c.doJSON(ctx, http.MethodPost, "checklist-items/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateChecklistItem(ctx context.Context, id int, in ChecklistItemInput) (model.ChecklistItem, error) {
	var out model.ChecklistItem
	err := c.doJSON(ctx, http.MethodPatch, idPath("checklist-items", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteChecklistItem(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, idPath("checklist-items", id), nil, nil, nil)
}
