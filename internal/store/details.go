package store

import (
	"context"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/model"
)

// DetailsBackend is the part of the API behind an opened card.
type DetailsBackend interface {
	ListComments(ctx context.Context, cardID int) ([]model.Comment, error)
	CreateComment(ctx context.Context, cardID int, text string) (model.Comment, error)
	DeleteComment(ctx context.Context, id int) error

	ListChecklists(ctx context.Context, cardID int) ([]model.Checklist, error)
	CreateChecklist(ctx context.Context, cardID int, title string) (model.Checklist, error)
	ListChecklistItems(ctx context.Context, cardID int) ([]model.ChecklistItem, error)
	CreateChecklistItem(ctx context.Context, in api.ChecklistItemInput) (model.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, id int, in api.ChecklistItemInput) (model.ChecklistItem, error)
	DeleteChecklistItem(ctx context.Context, id int) error

	ListAttachments(ctx context.Context, cardID int) ([]model.Attachment, error)
	UploadAttachment(ctx context.Context, cardID int, filename string, r io.Reader) (model.Attachment, error)
	DeleteAttachment(ctx context.Context, id int) error
}

// Details caches comments, checklist items and attachments per card.
type Details struct {
	reporter
	api DetailsBackend

	mu          sync.Mutex
	comments    map[int][]model.Comment
	checklists  map[int][]model.Checklist
	items       map[int][]model.ChecklistItem
	attachments map[int][]model.Attachment
}

func NewDetails(b DetailsBackend, opts ...Option) *Details {
	return &Details{
		reporter:    newReporter(opts),
		api:         b,
		comments:    map[int][]model.Comment{},
		checklists:  map[int][]model.Checklist{},
		items:       map[int][]model.ChecklistItem{},
		attachments: map[int][]model.Attachment{},
	}
}

func cardFields(cardID int) log.Fields { return log.Fields{"card_id": cardID} }

// --- comments ---

func (d *Details) FetchComments(ctx context.Context, cardID int) ([]model.Comment, error) {
	cs, err := d.api.ListComments(ctx, cardID)
	if err != nil {
		return nil, d.fail("load comments", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.comments[cardID] = cs
	d.mu.Unlock()
	return append([]model.Comment(nil), cs...), nil
}

func (d *Details) Comments(cardID int) []model.Comment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Comment(nil), d.comments[cardID]...)
}

func (d *Details) AddComment(ctx context.Context, cardID int, text string) (model.Comment, error) {
	c, err := d.api.CreateComment(ctx, cardID, text)
	if err != nil {
		return model.Comment{}, d.fail("add comment", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.comments[cardID] = mergeByID(d.comments[cardID], c, func(x model.Comment) int { return x.ID })
	d.mu.Unlock()
	return c, nil
}

func (d *Details) DeleteComment(ctx context.Context, cardID, commentID int) error {
	if err := d.api.DeleteComment(ctx, commentID); err != nil {
		return d.fail("delete comment", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.comments[cardID] = removeByID(d.comments[cardID], commentID, func(x model.Comment) int { return x.ID })
	d.mu.Unlock()
	return nil
}

// --- checklists ---

// FetchChecklist loads the card's checklists and their items.
func (d *Details) FetchChecklist(ctx context.Context, cardID int) ([]model.ChecklistItem, error) {
	cls, err := d.api.ListChecklists(ctx, cardID)
	if err != nil {
		return nil, d.fail("load checklist", cardFields(cardID), err)
	}
	items, err := d.api.ListChecklistItems(ctx, cardID)
	if err != nil {
		return nil, d.fail("load checklist", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.checklists[cardID] = cls
	d.items[cardID] = items
	d.mu.Unlock()
	return append([]model.ChecklistItem(nil), items...), nil
}

func (d *Details) Checklists(cardID int) []model.Checklist {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Checklist(nil), d.checklists[cardID]...)
}

func (d *Details) ChecklistItems(cardID int) []model.ChecklistItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.ChecklistItem(nil), d.items[cardID]...)
}

func (d *Details) AddChecklist(ctx context.Context, cardID int, title string) (model.Checklist, error) {
	cl, err := d.api.CreateChecklist(ctx, cardID, title)
	if err != nil {
		return model.Checklist{}, d.fail("add checklist", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.checklists[cardID] = mergeByID(d.checklists[cardID], cl, func(x model.Checklist) int { return x.ID })
	d.mu.Unlock()
	return cl, nil
}

// AddChecklistItem adds an item to the card. checklistID may be 0 when the
// card has a single implicit checklist.
func (d *Details) AddChecklistItem(ctx context.Context, cardID, checklistID int, text string) (model.ChecklistItem, error) {
	in := api.ChecklistItemInput{Checklist: checklistID, Card: cardID, Text: &text}
	it, err := d.api.CreateChecklistItem(ctx, in)
	if err != nil {
		return model.ChecklistItem{}, d.fail("add checklist item", cardFields(cardID), err)
	}
	d.mergeItem(cardID, it)
	return it, nil
}

// ToggleChecklistItem flips the completed flag the cache currently holds.
func (d *Details) ToggleChecklistItem(ctx context.Context, cardID, itemID int) (model.ChecklistItem, error) {
	d.mu.Lock()
	var cur *model.ChecklistItem
	for i := range d.items[cardID] {
		if d.items[cardID][i].ID == itemID {
			c := d.items[cardID][i]
			cur = &c
		}
	}
	d.mu.Unlock()
	if cur == nil {
		return model.ChecklistItem{}, ErrNotFound
	}
	done := !cur.Completed
	return d.patchItem(ctx, cardID, itemID, api.ChecklistItemInput{Completed: &done})
}

func (d *Details) UpdateChecklistItem(ctx context.Context, cardID, itemID int, text string) (model.ChecklistItem, error) {
	return d.patchItem(ctx, cardID, itemID, api.ChecklistItemInput{Text: &text})
}

func (d *Details) patchItem(ctx context.Context, cardID, itemID int, in api.ChecklistItemInput) (model.ChecklistItem, error) {
	it, err := d.api.UpdateChecklistItem(ctx, itemID, in)
	if err != nil {
		return model.ChecklistItem{}, d.fail("update checklist item", cardFields(cardID), err)
	}
	d.mergeItem(cardID, it)
	return it, nil
}

func (d *Details) DeleteChecklistItem(ctx context.Context, cardID, itemID int) error {
	if err := d.api.DeleteChecklistItem(ctx, itemID); err != nil {
		return d.fail("delete checklist item", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.items[cardID] = removeByID(d.items[cardID], itemID, func(x model.ChecklistItem) int { return x.ID })
	d.mu.Unlock()
	return nil
}

func (d *Details) mergeItem(cardID int, it model.ChecklistItem) {
	d.mu.Lock()
	d.items[cardID] = mergeByID(d.items[cardID], it, func(x model.ChecklistItem) int { return x.ID })
	d.mu.Unlock()
}

// --- attachments ---

func (d *Details) FetchAttachments(ctx context.Context, cardID int) ([]model.Attachment, error) {
	as, err := d.api.ListAttachments(ctx, cardID)
	if err != nil {
		return nil, d.fail("load attachments", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.attachments[cardID] = as
	d.mu.Unlock()
	return append([]model.Attachment(nil), as...), nil
}

func (d *Details) Attachments(cardID int) []model.Attachment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Attachment(nil), d.attachments[cardID]...)
}

func (d *Details) UploadAttachment(ctx context.Context, cardID int, name string, r io.Reader) (model.Attachment, error) {
	a, err := d.api.UploadAttachment(ctx, cardID, name, r)
	if err != nil {
		return model.Attachment{}, d.fail("upload attachment", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.attachments[cardID] = mergeByID(d.attachments[cardID], a, func(x model.Attachment) int { return x.ID })
	d.mu.Unlock()
	return a, nil
}

func (d *Details) DeleteAttachment(ctx context.Context, cardID, attachmentID int) error {
	if err := d.api.DeleteAttachment(ctx, attachmentID); err != nil {
		return d.fail("delete attachment", cardFields(cardID), err)
	}
	d.mu.Lock()
	d.attachments[cardID] = removeByID(d.attachments[cardID], attachmentID, func(x model.Attachment) int { return x.ID })
	d.mu.Unlock()
	return nil
}

// mergeByID replaces the element with v's id or appends v.
func mergeByID[T any](xs []T, v T, id func(T) int) []T {
	for i := range xs {
		if id(xs[i]) == id(v) {
			xs[i] = v
			return xs
		}
	}
	return append(xs, v)
}

func removeByID[T any](xs []T, target int, id func(T) int) []T {
	for i := range xs {
		if id(xs[i]) == target {
			return append(xs[:i], xs[i+1:]...)
		}
	}
	return xs
}
