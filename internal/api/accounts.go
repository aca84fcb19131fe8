package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Makepad-fr/board/internal/model"
)

// LoginResponse is what accounts/login/ returns.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Message      string `json:"message"`
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupInput registers a new account.
type SignupInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ProfileInput patches the signed-in user's profile.
type ProfileInput struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

type memberInput struct {
	BoardID int        `json:"board_id"`
	UserID  int        `json:"user_id"`
	Role    model.Role `json:"role"`
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "accounts/login/", nil, loginInput{username, password}, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, in SignupInput) error {
	return c.doJSON(ctx, http.MethodPost, "accounts/signup/", nil, in, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "accounts/logout/", nil, nil, nil)
}

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodGet, "accounts/profile/", nil, nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodPatch, "accounts/profile/", nil, in, &out)
	return out, err
}

// SearchUsers finds users to invite to boardID.
func (c *Client) SearchUsers(ctx context.Context, q string, boardID int) ([]model.User, error) {
	var out []model.User
	query := url.Values{"q": {q}, "board": {strconv.Itoa(boardID)}}
	if err := c.doJSON(ctx, http.MethodGet, "accounts/search-users/", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddBoardMember(ctx context.Context, boardID, userID int, role model.Role) error {
	return c.doJSON(ctx, http.MethodPost, "accounts/add-board-member/", nil, memberInput{boardID, userID, role}, nil)
}

func (c *Client) UpdateMemberRole(ctx context.Context, boardID, userID int, role model.Role) error {
	return c.doJSON(ctx, http.MethodPost, "accounts/update-member-role/", nil, memberInput{boardID, userID, role}, nil)
}
