// Package fakeapi is an in-memory stand-in for the Kanban backend. It
// serves the same routes under /api/ and lets tests seed data, inspect
// server-side state and inject failures.
package fakeapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Makepad-fr/board/internal/model"
)

var signingKey = []byte("fakeapi-test-secret")

type account struct {
	user     model.User
	password string
}

type failure struct {
	status int
	times  int // <0 means forever
}

// Server holds all backend state behind one mutex.
type Server struct {
	mu sync.Mutex
	e  *echo.Echo

	nextID        int
	accounts      map[int]*account
	tokens        map[string]int
	boards        map[int]*model.Board // Lists left empty; lists live in s.lists
	lists         map[int]*model.List  // Cards left empty; cards live in s.cards
	cards         map[int]*model.Card
	comments      map[int]*model.Comment
	checklists    map[int]*model.Checklist
	items         map[int]*model.ChecklistItem
	attachments   map[int]*model.Attachment
	labels        map[int]*model.Label
	notifications map[int]*notificationRec

	failures map[string]*failure
	requests []string
	now      func() time.Time
}

type notificationRec struct {
	owner int
	n     model.Notification
}

// New returns an empty backend.
func New() *Server {
	s := &Server{
		accounts:      map[int]*account{},
		tokens:        map[string]int{},
		boards:        map[int]*model.Board{},
		lists:         map[int]*model.List{},
		cards:         map[int]*model.Card{},
		comments:      map[int]*model.Comment{},
		checklists:    map[int]*model.Checklist{},
		items:         map[int]*model.ChecklistItem{},
		attachments:   map[int]*model.Attachment{},
		labels:        map[int]*model.Label{},
		notifications: map[int]*notificationRec{},
		failures:      map[string]*failure{},
		now:           time.Now,
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(s.record, s.injectFailures, s.authenticate)
	s.routes(e.Group("/api"))
	s.e = e
	return s
}

// ServeHTTP lets the server sit behind httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

// AddUser creates an account.
func (s *Server) AddUser(username, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(username, password, "")
}

func (s *Server) addUser(username, password, email string) model.User {
	u := model.User{ID: s.id(), Username: username, Email: email}
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// IssueToken mints a bearer token for userID, as a successful login would.
func (s *Server) IssueToken(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(userID)
}

func (s *Server) issueToken(userID int) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"exp":     s.now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	s.tokens[signed] = userID
	return signed
}

// RevokeTokens invalidates every issued token, so the next call gets 401.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]int{}
}

// SeedBoard creates a board owned by ownerID.
func (s *Server) SeedBoard(ownerID int, title string) model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.createBoard(ownerID, model.BoardInput{Title: title})
	return s.boardView(b)
}

// SetMember adds or updates a membership.
func (s *Server) SetMember(boardID, userID int, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMember(s.boards[boardID], userID, role)
}

// SeedList appends a list to a board.
func (s *Server) SeedList(boardID int, title string) model.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.createList(boardID, title)
	return *l
}

// SeedCard appends a card to a list.
func (s *Server) SeedCard(listID int, title string) model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.createCard(listID, title, "")
	return *c
}

// Notify queues a notification for userID.
func (s *Server) Notify(userID int, typ, message string) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := model.Notification{ID: s.id(), Type: typ, Message: message, CreatedAt: s.now()}
	s.notifications[n.ID] = &notificationRec{owner: userID, n: n}
	return n
}

// CardsIn returns the server's cards of a list in display order.
func (s *Server) CardsIn(listID int) []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardsIn(listID)
}

// ListsOf returns the server's lists of a board in display order.
func (s *Server) ListsOf(boardID int) []model.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listsOf(boardID)
}

// LabelsOf returns the server's labels of a board by id.
func (s *Server) LabelsOf(boardID int) []model.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Label
	for _, l := range s.labels {
		if l.Board == boardID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fail makes the next n requests matching "METHOD /api/path/" answer with
// status. n < 0 fails forever.
func (s *Server) Fail(method, path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, times: n}
}

// Requests returns "METHOD /path" for every request seen so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request().Method+" "+c.Request().URL.Path)
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Request().URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		if ok && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(s.failures, key)
			}
		}
		s.mu.Unlock()
		if ok {
			return c.JSON(f.status, map[string]string{"error": "injected failure"})
		}
		return next(c)
	}
}

const userKey = "fakeapi.user"

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := c.Request().URL.Path
		if strings.HasSuffix(p, "/accounts/login/") || strings.HasSuffix(p, "/accounts/signup/") {
			return next(c)
		}
		h := c.Request().Header.Get(echo.HeaderAuthorization)
		tok := strings.TrimPrefix(h, "Bearer ")
		s.mu.Lock()
		uid, ok := s.tokens[tok]
		s.mu.Unlock()
		if h == "" || !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		}
		c.Set(userKey, uid)
		return next(c)
	}
}

// --- state helpers; callers hold s.mu ---

func (s *Server) createBoard(ownerID int, in model.BoardInput) *model.Board {
	b := &model.Board{
		ID:          s.id(),
		Title:       in.Title,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		CreatedBy:   ownerID,
		CreatedAt:   s.now(),
	}
	if b.Color == "" {
		b.Color = "blue"
	}
	s.boards[b.ID] = b
	s.setMember(b, ownerID, model.RoleOwner)
	return b
}

func (s *Server) setMember(b *model.Board, userID int, role model.Role) {
	if b == nil {
		return
	}
	acc := s.accounts[userID]
	if acc == nil {
		return
	}
	now := s.now()
	for i := range b.Members {
		if b.Members[i].User.ID == userID {
			b.Members[i].Role = role
			return
		}
	}
	b.Members = append(b.Members, model.Member{User: acc.user, Role: role, AddedAt: &now})
}

func (s *Server) role(boardID, userID int) (model.Role, bool) {
	b := s.boards[boardID]
	if b == nil {
		return "", false
	}
	m, ok := b.Membership(userID)
	return m.Role, ok
}

func (s *Server) createList(boardID int, title string) *model.List {
	l := &model.List{ID: s.id(), Board: boardID, Title: title, Order: len(s.listsOf(boardID)), CreatedAt: s.now()}
	s.lists[l.ID] = l
	return l
}

func (s *Server) createCard(listID int, title, desc string) *model.Card {
	c := &model.Card{ID: s.id(), List: listID, Title: title, Description: desc, Order: len(s.cardsIn(listID)), CreatedAt: s.now()}
	s.cards[c.ID] = c
	return c
}

func (s *Server) boardView(b *model.Board) model.Board {
	out := b.Clone()
	out.Lists = nil
	for _, l := range s.listsOf(b.ID) {
		l.Cards = s.cardsIn(l.ID)
		out.Lists = append(out.Lists, l)
	}
	return out
}

func (s *Server) listsOf(boardID int) []model.List {
	var out []model.List
	for _, l := range s.lists {
		if l.Board == boardID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Server) cardsIn(listID int) []model.Card {
	var out []model.Card
	for _, c := range s.cards {
		if c.List == listID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// placeCard moves card to listID at index and renumbers both lists.
func (s *Server) placeCard(card *model.Card, listID, index int) {
	from := card.List
	card.List = listID
	var dest []*model.Card
	for _, c := range s.cardsIn(listID) {
		if c.ID != card.ID {
			dest = append(dest, s.cards[c.ID])
		}
	}
	if index < 0 || index > len(dest) {
		index = len(dest)
	}
	dest = append(dest[:index], append([]*model.Card{card}, dest[index:]...)...)
	for i, c := range dest {
		c.Order = i
	}
	if from != listID {
		for i, c := range s.cardsIn(from) {
			s.cards[c.ID].Order = i
		}
	}
}

func (s *Server) boardOfList(listID int) int {
	if l := s.lists[listID]; l != nil {
		return l.Board
	}
	return 0
}

func (s *Server) boardOfCard(cardID int) int {
	if c := s.cards[cardID]; c != nil {
		return s.boardOfList(c.List)
	}
	return 0
}

// sonicSerializer makes echo speak JSON through sonic, like the client.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
