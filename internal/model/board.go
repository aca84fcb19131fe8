package model

import "time"

// Role is a board membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanEdit reports whether the role may change board structure.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleAdmin
}

// User is an account as the backend serializes it.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Username
}

// Member is one entry of a board's membership set.
type Member struct {
	User    User       `json:"user"`
	Role    Role       `json:"role"`
	AddedAt *time.Time `json:"added_at,omitempty"`
}

// Board is the top-level container. Lists are kept in display order.
type Board struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedBy   int       `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Members     []Member  `json:"memberships,omitempty"`
	Lists       []List    `json:"lists,omitempty"`
	Labels      []Label   `json:"labels,omitempty"`
}

// Membership returns the member entry for userID.
func (b *Board) Membership(userID int) (Member, bool) {
	for _, m := range b.Members {
		if m.User.ID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// ListIndex returns the position of listID in b.Lists or -1.
func (b *Board) ListIndex(listID int) int {
	for i := range b.Lists {
		if b.Lists[i].ID == listID {
			return i
		}
	}
	return -1
}

// FindList returns a pointer into b.Lists, or nil.
func (b *Board) FindList(listID int) *List {
	if i := b.ListIndex(listID); i >= 0 {
		return &b.Lists[i]
	}
	return nil
}

// FindCard locates a card anywhere on the board.
func (b *Board) FindCard(cardID int) (list *List, index int) {
	for i := range b.Lists {
		if j := b.Lists[i].CardIndex(cardID); j >= 0 {
			return &b.Lists[i], j
		}
	}
	return nil, -1
}

// Clone returns a deep copy of the board graph.
func (b Board) Clone() Board {
	out := b
	out.Members = append([]Member(nil), b.Members...)
	out.Labels = append([]Label(nil), b.Labels...)
	if b.Lists != nil {
		out.Lists = make([]List, len(b.Lists))
		for i, l := range b.Lists {
			out.Lists[i] = l.Clone()
		}
	}
	return out
}

// BoardInput is the writable subset of a board.
type BoardInput struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}
