package model

import "time"

// Notification types the backend emits.
const (
	NotifyMention      = "mention"
	NotifyCardAssigned = "card_assigned"
	NotifyComment      = "comment"
	NotifyBoardInvite  = "board_invite"
)

// Notification is process-wide, not scoped to a board.
type Notification struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	BoardID   *int      `json:"board_id,omitempty"`
	CardID    *int      `json:"card_id,omitempty"`
}
