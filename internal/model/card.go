package model

import "time"

// List is an ordered column of cards within a board.
type List struct {
	ID        int       `json:"id"`
	Board     int       `json:"board"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	Cards     []Card    `json:"cards,omitempty"`
}

// CardIndex returns the position of cardID in l.Cards or -1.
func (l *List) CardIndex(cardID int) int {
	for i := range l.Cards {
		if l.Cards[i].ID == cardID {
			return i
		}
	}
	return -1
}

func (l List) Clone() List {
	out := l
	if l.Cards != nil {
		out.Cards = make([]Card, len(l.Cards))
		for i, c := range l.Cards {
			out.Cards[i] = c.Clone()
		}
	}
	return out
}

// ListInput is the writable subset of a list.
type ListInput struct {
	Board int    `json:"board,omitempty"`
	Title string `json:"title,omitempty"`
	Order *int   `json:"order,omitempty"`
}

// Card is a work item. It belongs to exactly one list at a time.
type Card struct {
	ID          int             `json:"id"`
	List        int             `json:"list"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     *Date           `json:"due_date,omitempty"`
	Order       int             `json:"order"`
	Assignees   []int           `json:"assignees,omitempty"`
	Labels      []int           `json:"labels,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (c Card) Clone() Card {
	out := c
	out.Assignees = append([]int(nil), c.Assignees...)
	out.Labels = append([]int(nil), c.Labels...)
	out.Checklist = append([]ChecklistItem(nil), c.Checklist...)
	if c.DueDate != nil {
		d := *c.DueDate
		out.DueDate = &d
	}
	return out
}

// Progress counts completed checklist items.
func (c Card) Progress() (done, total int) {
	for _, it := range c.Checklist {
		if it.Completed {
			done++
		}
	}
	return done, len(c.Checklist)
}

// CardInput is a partial card update. Nil fields are omitted from the
// request body so PATCH only touches what was set.
type CardInput struct {
	List        *int    `json:"list,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *Date   `json:"due_date,omitempty"`
	Order       *int    `json:"order,omitempty"`
	Assignees   []int   `json:"assignees,omitempty"`
	Labels      []int   `json:"labels,omitempty"`
}

// Checklist groups items on a card.
type Checklist struct {
	ID    int             `json:"id"`
	Card  int             `json:"card"`
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items,omitempty"`
}

type ChecklistItem struct {
	ID        int    `json:"id"`
	Checklist int    `json:"checklist,omitempty"`
	Card      int    `json:"card,omitempty"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Comment belongs to one card.
type Comment struct {
	ID        int       `json:"id"`
	Card      int       `json:"card"`
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a file uploaded to a card.
type Attachment struct {
	ID         int       `json:"id"`
	Card       int       `json:"card"`
	File       string    `json:"file"`
	Name       string    `json:"name,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}
