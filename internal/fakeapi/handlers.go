package fakeapi

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Makepad-fr/board/internal/model"
)

func (s *Server) routes(g *echo.Group) {
	g.POST("/accounts/login/", s.login)
	g.POST("/accounts/signup/", s.signup)
	g.POST("/accounts/logout/", s.logout)
	g.GET("/accounts/profile/", s.profile)
	g.PATCH("/accounts/profile/", s.updateProfile)
	g.GET("/accounts/search-users/", s.searchUsers)
	g.POST("/accounts/add-board-member/", s.addMember)
	g.POST("/accounts/update-member-role/", s.updateMemberRole)

	g.GET("/boards/", s.listBoards)
	g.POST("/boards/", s.createBoardH)
	g.GET("/boards/:id/", s.getBoard)
	g.PATCH("/boards/:id/", s.updateBoard)
	g.DELETE("/boards/:id/", s.deleteBoard)

	g.GET("/lists/", s.listLists)
	g.POST("/lists/", s.createListH)
	g.PATCH("/lists/:id/", s.updateList)
	g.DELETE("/lists/:id/", s.deleteList)

	g.GET("/cards/", s.listCards)
	g.POST("/cards/", s.createCardH)
	g.PATCH("/cards/:id/", s.updateCard)
	g.DELETE("/cards/:id/", s.deleteCard)

	g.GET("/comments/", s.listComments)
	g.POST("/comments/", s.createComment)
	g.DELETE("/comments/:id/", s.deleteComment)

	g.GET("/checklists/", s.listChecklists)
	g.POST("/checklists/", s.createChecklist)
	g.GET("/checklist-items/", s.listItems)
	g.POST("/checklist-items/", s.createItem)
	g.PATCH("/checklist-items/:id/", s.updateItem)
	g.DELETE("/checklist-items/:id/", s.deleteItem)

	g.GET("/attachments/", s.listAttachments)
	g.POST("/attachments/", s.uploadAttachment)
	g.DELETE("/attachments/", s.deleteAttachment)

	g.GET("/labels/", s.listLabels)
	g.POST("/labels/", s.createLabel)

	g.GET("/notifications/", s.listNotifications)
	g.PATCH("/notifications/mark-read/", s.markRead)
	g.DELETE("/notifications/:id/delete/", s.deleteNotification)
}

func userID(c echo.Context) int {
	id, _ := c.Get(userKey).(int)
	return id
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "bad id")
	}
	return v, nil
}

func intQueryParam(c echo.Context, name string) int {
	v, _ := strconv.Atoi(c.QueryParam(name))
	return v
}

func errJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, map[string]string{"detail": "Not found."})
}

// --- accounts ---

func (s *Server) login(c echo.Context) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.Username == in.Username && a.password == in.Password {
			return c.JSON(http.StatusOK, map[string]string{
				"access_token":  s.issueToken(a.user.ID),
				"refresh_token": uuid.NewString(),
				"message":       "Login successful!",
			})
		}
	}
	return errJSON(c, http.StatusBadRequest, "Invalid username or password.")
}

func (s *Server) signup(c echo.Context) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	if in.Username == "" || in.Password == "" {
		return errJSON(c, http.StatusBadRequest, "Username and password required.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.Username == in.Username {
			return errJSON(c, http.StatusBadRequest, "Username already taken.")
		}
	}
	s.addUser(in.Username, in.Password, in.Email)
	return c.JSON(http.StatusCreated, map[string]string{"message": "User created successfully!"})
}

func (s *Server) logout(c echo.Context) error {
	tok := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) profile(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.accounts[userID(c)].user)
}

func (s *Server) updateProfile(c echo.Context) error {
	var in struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Avatar    *string `json:"avatar"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &s.accounts[userID(c)].user
	if in.Email != nil {
		if !strings.Contains(*in.Email, "@") {
			return c.JSON(http.StatusBadRequest, map[string][]string{"email": {"Enter a valid email address."}})
		}
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	return c.JSON(http.StatusOK, *u)
}

func (s *Server) searchUsers(c echo.Context) error {
	q := strings.ToLower(c.QueryParam("q"))
	boardID := intQueryParam(c, "board")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, a := range s.accounts {
		if _, member := s.role(boardID, a.user.ID); member {
			continue
		}
		if strings.Contains(strings.ToLower(a.user.Username), q) {
			out = append(out, a.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

type memberPayload struct {
	BoardID int        `json:"board_id"`
	UserID  int        `json:"user_id"`
	Role    model.Role `json:"role"`
}

func (s *Server) addMember(c echo.Context) error {
	return s.changeMember(c, false)
}

func (s *Server) updateMemberRole(c echo.Context) error {
	return s.changeMember(c, true)
}

func (s *Server) changeMember(c echo.Context, mustExist bool) error {
	var in memberPayload
	if err := c.Bind(&in); err != nil {
		return err
	}
	if in.Role == "" {
		in.Role = model.RoleMember
	}
	if !in.Role.Valid() {
		return c.JSON(http.StatusBadRequest, map[string][]string{"role": {"Invalid role."}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.role(in.BoardID, userID(c))
	if !ok {
		return notFound(c)
	}
	if !actor.CanEdit() {
		return errJSON(c, http.StatusForbidden, "Only owners and admins can manage members.")
	}
	if _, exists := s.role(in.BoardID, in.UserID); mustExist && !exists {
		return notFound(c)
	}
	if s.accounts[in.UserID] == nil {
		return notFound(c)
	}
	s.setMember(s.boards[in.BoardID], in.UserID, in.Role)
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}

// --- boards ---

func (s *Server) listBoards(c echo.Context) error {
	uid := userID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Board{}
	for _, b := range s.boards {
		if _, ok := b.Membership(uid); ok {
			out = append(out, s.boardView(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createBoardH(c echo.Context) error {
	var in model.BoardInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return c.JSON(http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.createBoard(userID(c), in)
	return c.JSON(http.StatusCreated, s.boardView(b))
}

func (s *Server) memberBoard(c echo.Context) (*model.Board, model.Role, error) {
	id, err := intParam(c, "id")
	if err != nil {
		return nil, "", err
	}
	b := s.boards[id]
	if b == nil {
		return nil, "", notFound(c)
	}
	m, ok := b.Membership(userID(c))
	if !ok {
		return nil, "", notFound(c)
	}
	return b, m.Role, nil
}

func (s *Server) getBoard(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _, err := s.memberBoard(c)
	if b == nil {
		return err
	}
	return c.JSON(http.StatusOK, s.boardView(b))
}

func (s *Server) updateBoard(c echo.Context) error {
	var in model.BoardInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, role, err := s.memberBoard(c)
	if b == nil {
		return err
	}
	if !role.CanEdit() {
		return errJSON(c, http.StatusForbidden, "You do not have permission to edit this board.")
	}
	if in.Title != "" {
		b.Title = in.Title
	}
	if in.Description != "" {
		b.Description = in.Description
	}
	if in.Color != "" {
		b.Color = in.Color
	}
	if in.Icon != "" {
		b.Icon = in.Icon
	}
	return c.JSON(http.StatusOK, s.boardView(b))
}

func (s *Server) deleteBoard(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, role, err := s.memberBoard(c)
	if b == nil {
		return err
	}
	if role != model.RoleOwner {
		return errJSON(c, http.StatusForbidden, "Only the owner can delete a board.")
	}
	for _, l := range s.listsOf(b.ID) {
		s.dropList(l.ID)
	}
	delete(s.boards, b.ID)
	return c.NoContent(http.StatusNoContent)
}

// --- lists ---

func (s *Server) listLists(c echo.Context) error {
	boardID := intQueryParam(c, "board")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.role(boardID, userID(c)); !ok {
		return c.JSON(http.StatusOK, []model.List{})
	}
	out := s.listsOf(boardID)
	if out == nil {
		out = []model.List{}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createListH(c echo.Context) error {
	var in model.ListInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return c.JSON(http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.role(in.Board, userID(c)); !ok {
		return c.JSON(http.StatusBadRequest, map[string][]string{"board": {"Invalid board."}})
	}
	l := s.createList(in.Board, in.Title)
	if in.Order != nil {
		l.Order = *in.Order
	}
	return c.JSON(http.StatusCreated, *l)
}

func (s *Server) memberList(c echo.Context) (*model.List, error) {
	id, err := intParam(c, "id")
	if err != nil {
		return nil, err
	}
	l := s.lists[id]
	if l == nil {
		return nil, notFound(c)
	}
	if _, ok := s.role(l.Board, userID(c)); !ok {
		return nil, notFound(c)
	}
	return l, nil
}

func (s *Server) updateList(c echo.Context) error {
	var in model.ListInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.memberList(c)
	if l == nil {
		return err
	}
	if in.Title != "" {
		l.Title = in.Title
	}
	if in.Order != nil {
		l.Order = *in.Order
	}
	return c.JSON(http.StatusOK, *l)
}

func (s *Server) deleteList(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.memberList(c)
	if l == nil {
		return err
	}
	s.dropList(l.ID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) dropList(listID int) {
	for id, card := range s.cards {
		if card.List == listID {
			delete(s.cards, id)
		}
	}
	delete(s.lists, listID)
}

// --- cards ---

func (s *Server) listCards(c echo.Context) error {
	listID := intQueryParam(c, "list")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.role(s.boardOfList(listID), userID(c)); !ok {
		return c.JSON(http.StatusOK, []model.Card{})
	}
	out := s.cardsIn(listID)
	if out == nil {
		out = []model.Card{}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createCardH(c echo.Context) error {
	var in model.CardInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return c.JSON(http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
	}
	if in.List == nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"list": {"This field is required."}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.role(s.boardOfList(*in.List), userID(c)); !ok {
		return c.JSON(http.StatusBadRequest, map[string][]string{"list": {"Invalid list."}})
	}
	desc := ""
	if in.Description != nil {
		desc = *in.Description
	}
	card := s.createCard(*in.List, *in.Title, desc)
	card.DueDate = in.DueDate
	card.Assignees = in.Assignees
	card.Labels = in.Labels
	return c.JSON(http.StatusCreated, card.Clone())
}

func (s *Server) memberCard(c echo.Context) (*model.Card, error) {
	id, err := intParam(c, "id")
	if err != nil {
		return nil, err
	}
	card := s.cards[id]
	if card == nil {
		return nil, notFound(c)
	}
	if _, ok := s.role(s.boardOfCard(id), userID(c)); !ok {
		return nil, notFound(c)
	}
	return card, nil
}

func (s *Server) updateCard(c echo.Context) error {
	var in model.CardInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	card, err := s.memberCard(c)
	if card == nil {
		return err
	}
	if in.List != nil {
		dst := s.lists[*in.List]
		if dst == nil || dst.Board != s.boardOfCard(card.ID) {
			return c.JSON(http.StatusBadRequest, map[string][]string{"list": {"Invalid list."}})
		}
		idx := -1
		if in.Order != nil {
			idx = *in.Order
		}
		s.placeCard(card, *in.List, idx)
	} else if in.Order != nil {
		s.placeCard(card, card.List, *in.Order)
	}
	if in.Title != nil {
		card.Title = *in.Title
	}
	if in.Description != nil {
		card.Description = *in.Description
	}
	if in.DueDate != nil {
		card.DueDate = in.DueDate
	}
	if in.Assignees != nil {
		card.Assignees = in.Assignees
	}
	if in.Labels != nil {
		card.Labels = in.Labels
	}
	return c.JSON(http.StatusOK, card.Clone())
}

func (s *Server) deleteCard(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, err := s.memberCard(c)
	if card == nil {
		return err
	}
	delete(s.cards, card.ID)
	for i, rest := range s.cardsIn(card.List) {
		s.cards[rest.ID].Order = i
	}
	return c.NoContent(http.StatusNoContent)
}

// --- comments ---

func (s *Server) listComments(c echo.Context) error {
	cardID := intQueryParam(c, "card")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Comment{}
	for _, cm := range s.comments {
		if cm.Card == cardID {
			out = append(out, *cm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createComment(c echo.Context) error {
	var in struct {
		Card int    `json:"card"`
		Text string `json:"text"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string][]string{"text": {"This field may not be blank."}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cards[in.Card] == nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"card": {"Invalid card."}})
	}
	cm := &model.Comment{ID: s.id(), Card: in.Card, Author: s.accounts[userID(c)].user, Text: in.Text, CreatedAt: s.now()}
	s.comments[cm.ID] = cm
	return c.JSON(http.StatusCreated, *cm)
}

func (s *Server) deleteComment(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.comments[id] == nil {
		return notFound(c)
	}
	delete(s.comments, id)
	return c.NoContent(http.StatusNoContent)
}

// --- checklists ---

func (s *Server) listChecklists(c echo.Context) error {
	cardID := intQueryParam(c, "card")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Checklist{}
	for _, cl := range s.checklists {
		if cl.Card != cardID {
			continue
		}
		v := *cl
		v.Items = nil
		for _, it := range s.itemsOf(cardID) {
			if it.Checklist == cl.ID {
				v.Items = append(v.Items, it)
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createChecklist(c echo.Context) error {
	var in struct {
		Card  int    `json:"card"`
		Title string `json:"title"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cards[in.Card] == nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"card": {"Invalid card."}})
	}
	cl := &model.Checklist{ID: s.id(), Card: in.Card, Title: in.Title}
	s.checklists[cl.ID] = cl
	return c.JSON(http.StatusCreated, *cl)
}

func (s *Server) itemsOf(cardID int) []model.ChecklistItem {
	out := []model.ChecklistItem{}
	for _, it := range s.items {
		if it.Card == cardID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listItems(c echo.Context) error {
	cardID := intQueryParam(c, "card")
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.itemsOf(cardID))
}

func (s *Server) createItem(c echo.Context) error {
	var in struct {
		Checklist int    `json:"checklist"`
		Card      int    `json:"card"`
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string][]string{"text": {"This field may not be blank."}})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cl := s.checklists[in.Checklist]; cl != nil && in.Card == 0 {
		in.Card = cl.Card
	}
	if s.cards[in.Card] == nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"card": {"Invalid card."}})
	}
	it := &model.ChecklistItem{ID: s.id(), Checklist: in.Checklist, Card: in.Card, Text: in.Text, Completed: in.Completed}
	s.items[it.ID] = it
	s.syncCardChecklist(in.Card)
	return c.JSON(http.StatusCreated, *it)
}

func (s *Server) updateItem(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		Text      *string `json:"text"`
		Completed *bool   `json:"completed"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[id]
	if it == nil {
		return notFound(c)
	}
	if in.Text != nil {
		it.Text = *in.Text
	}
	if in.Completed != nil {
		it.Completed = *in.Completed
	}
	s.syncCardChecklist(it.Card)
	return c.JSON(http.StatusOK, *it)
}

func (s *Server) deleteItem(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.items[id]
	if it == nil {
		return notFound(c)
	}
	delete(s.items, id)
	s.syncCardChecklist(it.Card)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) syncCardChecklist(cardID int) {
	if card := s.cards[cardID]; card != nil {
		card.Checklist = s.itemsOf(cardID)
	}
}

// --- attachments ---

func (s *Server) listAttachments(c echo.Context) error {
	cardID := intQueryParam(c, "card")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Attachment{}
	for _, a := range s.attachments {
		if a.Card == cardID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) uploadAttachment(c echo.Context) error {
	cardID, err := strconv.Atoi(c.FormValue("card"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"card": {"A valid integer is required."}})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"file": {"No file was submitted."}})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cards[cardID] == nil {
		return c.JSON(http.StatusBadRequest, map[string][]string{"card": {"Invalid card."}})
	}
	a := &model.Attachment{ID: s.id(), Card: cardID, Name: fh.Filename, File: "/media/attachments/" + fh.Filename, UploadedAt: s.now()}
	s.attachments[a.ID] = a
	return c.JSON(http.StatusCreated, *a)
}

func (s *Server) deleteAttachment(c echo.Context) error {
	var in struct {
		ID int `json:"id"`
	}
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachments[in.ID] == nil {
		return notFound(c)
	}
	delete(s.attachments, in.ID)
	return c.NoContent(http.StatusNoContent)
}

// --- labels ---

func (s *Server) listLabels(c echo.Context) error {
	boardID := intQueryParam(c, "board")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Label{}
	for _, l := range s.labels {
		if l.Board == boardID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createLabel(c echo.Context) error {
	var in model.Label
	if err := c.Bind(&in); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.role(in.Board, userID(c)); !ok {
		return c.JSON(http.StatusBadRequest, map[string][]string{"board": {"Invalid board."}})
	}
	in.ID = s.id()
	s.labels[in.ID] = &in
	return c.JSON(http.StatusCreated, in)
}

// --- notifications ---

func (s *Server) listNotifications(c echo.Context) error {
	uid := userID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Notification{}
	for _, r := range s.notifications {
		if r.owner == uid {
			out = append(out, r.n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) markRead(c echo.Context) error {
	uid := userID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.notifications {
		if r.owner == uid {
			r.n.Read = true
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) deleteNotification(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.notifications[id]
	if r == nil || r.owner != userID(c) {
		return notFound(c)
	}
	delete(s.notifications, id)
	return c.NoContent(http.StatusNoContent)
}
