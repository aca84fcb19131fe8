package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/alert"
	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/model"
)

// Backend is the part of the API the board store uses. *api.Client
// satisfies it.
type Backend interface {
	ListBoards(ctx context.Context) ([]model.Board, error)
	GetBoard(ctx context.Context, id int) (model.Board, error)
	CreateBoard(ctx context.Context, in model.BoardInput) (model.Board, error)
	UpdateBoard(ctx context.Context, id int, in model.BoardInput) (model.Board, error)
	DeleteBoard(ctx context.Context, id int) error

	ListLists(ctx context.Context, boardID int) ([]model.List, error)
	CreateList(ctx context.Context, in model.ListInput) (model.List, error)
	UpdateList(ctx context.Context, id int, in model.ListInput) (model.List, error)
	DeleteList(ctx context.Context, id int) error

	ListCards(ctx context.Context, listID int) ([]model.Card, error)
	CreateCard(ctx context.Context, in model.CardInput) (model.Card, error)
	UpdateCard(ctx context.Context, id int, in model.CardInput) (model.Card, error)
	DeleteCard(ctx context.Context, id int) error

	ListLabels(ctx context.Context, boardID int) ([]model.Label, error)
	CreateLabel(ctx context.Context, in model.Label) (model.Label, error)

	SearchUsers(ctx context.Context, q string, boardID int) ([]model.User, error)
	AddBoardMember(ctx context.Context, boardID, userID int, role model.Role) error
	UpdateMemberRole(ctx context.Context, boardID, userID int, role model.Role) error
}

// BoardStore holds every board the user has fetched, with nested lists and
// cards in display order. Safe for concurrent use.
type BoardStore struct {
	reporter
	api Backend

	mu       sync.Mutex
	userID   int
	boards   []model.Board
	versions map[int]uint64 // list id -> bumped on every local change
	loading  map[int]bool
	queue    *cardQueue
	chains   map[int][]int // card id -> lists touched by its queued moves
}

func NewBoardStore(b Backend, opts ...Option) *BoardStore {
	return &BoardStore{
		reporter: newReporter(opts),
		api:      b,
		versions: map[int]uint64{},
		loading:  map[int]bool{},
		queue:    newCardQueue(),
		chains:   map[int][]int{},
	}
}

// SetCurrentUser sets whose memberships the access checks look at.
func (s *BoardStore) SetCurrentUser(id int) {
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
}

func (s *BoardStore) CurrentUser() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Loading reports whether Load is running for boardID.
func (s *BoardStore) Loading(boardID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[boardID]
}

func (s *BoardStore) setLoading(boardID int, v bool) {
	s.mu.Lock()
	if v {
		s.loading[boardID] = true
	} else {
		delete(s.loading, boardID)
	}
	s.mu.Unlock()
}

// FetchBoards replaces the board collection. Lists already loaded for a
// board are kept when the listing does not carry them.
func (s *BoardStore) FetchBoards(ctx context.Context) error {
	bs, err := s.api.ListBoards(ctx)
	if err != nil {
		return s.fail("load boards", nil, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old := make(map[int]model.Board, len(s.boards))
	for _, b := range s.boards {
		old[b.ID] = b
	}
	for i := range bs {
		if bs[i].Labels == nil {
			bs[i].Labels = old[bs[i].ID].Labels
		}
		if bs[i].Lists == nil {
			bs[i].Lists = old[bs[i].ID].Lists
			continue
		}
		sortLists(bs[i].Lists)
		s.bumpLists(bs[i].Lists)
	}
	s.boards = bs
	return nil
}

// Load fetches one board, its lists and each list's cards, and replaces
// whatever was held for that board. On failure the previous state stays.
func (s *BoardStore) Load(ctx context.Context, boardID int) error {
	s.setLoading(boardID, true)
	defer s.setLoading(boardID, false)

	fields := log.Fields{"board_id": boardID}
	b, err := s.api.GetBoard(ctx, boardID)
	if err != nil {
		return &FetchError{BoardID: boardID, Err: s.fail("load board", fields, err)}
	}
	lists, err := s.api.ListLists(ctx, boardID)
	if err != nil {
		return &FetchError{BoardID: boardID, Err: s.fail("load board", fields, err)}
	}
	for i := range lists {
		cards, err := s.api.ListCards(ctx, lists[i].ID)
		if err != nil {
			return &FetchError{BoardID: boardID, Err: s.fail("load board", fields, err)}
		}
		lists[i].Cards = cards
	}
	if lists == nil {
		lists = []model.List{}
	}
	sortLists(lists)
	b.Lists = lists

	s.mu.Lock()
	if bi := s.boardIndex(boardID); bi >= 0 && b.Labels == nil {
		b.Labels = s.boards[bi].Labels
	}
	s.upsertBoard(b)
	s.bumpLists(lists)
	s.mu.Unlock()
	s.log.WithFields(fields).WithField("lists", len(lists)).Debug("board loaded")
	return nil
}

// Board returns a copy of the board, or nil when it is unknown or the
// current user is not one of its members.
func (s *BoardStore) Board(id int) *model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	bi := s.boardIndex(id)
	if bi < 0 || !s.isMember(bi) {
		return nil
	}
	b := s.boards[bi].Clone()
	return &b
}

// Boards returns copies of the boards the current user belongs to.
func (s *BoardStore) Boards() []model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Board
	for i := range s.boards {
		if s.isMember(i) {
			out = append(out, s.boards[i].Clone())
		}
	}
	return out
}

// CanAccessBoard reports whether the current user is a member of the board.
func (s *BoardStore) CanAccessBoard(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	bi := s.boardIndex(id)
	return bi >= 0 && s.isMember(bi)
}

// CanEditBoard reports whether the current user is an owner or admin of
// the board.
func (s *BoardStore) CanEditBoard(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	bi := s.boardIndex(id)
	return bi >= 0 && s.canEdit(bi)
}

// MoveCard moves a card between (or within) lists of one board. The local
// state changes before the request goes out; requests for the same card go
// out one at a time in the order the moves were made. On failure the
// lists are put back as they were and then refetched from the server.
func (s *BoardStore) MoveCard(ctx context.Context, cardID, srcListID, dstListID, destIndex int) error {
	fields := log.Fields{"card_id": cardID, "list_id": srcListID, "dest_list_id": dstListID}

	s.mu.Lock()
	sbi, sli := s.locateList(srcListID)
	dbi, dli := s.locateList(dstListID)
	if sbi < 0 || dbi < 0 || sbi != dbi {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !s.isMember(sbi) {
		s.mu.Unlock()
		return ErrForbidden
	}
	board := &s.boards[sbi]
	src, dst := &board.Lists[sli], &board.Lists[dli]
	ci := src.CardIndex(cardID)
	if ci < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	snaps := []listSnapshot{{listID: src.ID, cards: cloneCards(src.Cards)}}
	if dst.ID != src.ID {
		snaps = append(snaps, listSnapshot{listID: dst.ID, cards: cloneCards(dst.Cards)})
	}

	card := src.Cards[ci]
	src.Cards = append(src.Cards[:ci], src.Cards[ci+1:]...)
	if destIndex < 0 {
		destIndex = 0
	}
	if destIndex > len(dst.Cards) {
		destIndex = len(dst.Cards)
	}
	card.List = dst.ID
	dst.Cards = insertCard(dst.Cards, destIndex, card)
	renumberCards(src.Cards)
	renumberCards(dst.Cards)
	for i := range snaps {
		s.versions[snaps[i].listID]++
		snaps[i].version = s.versions[snaps[i].listID]
	}
	t := s.queue.enqueue(cardID)
	s.chain(cardID, src.ID, dst.ID)
	s.mu.Unlock()

	fields["dest_index"] = destIndex
	err := t.wait(ctx)
	if err == nil {
		_, err = s.api.UpdateCard(ctx, cardID, model.CardInput{List: &dstListID, Order: &destIndex})
	}
	defer s.finishMove(t)
	if err == nil {
		s.log.WithFields(fields).Debug("card moved")
		return nil
	}

	s.mu.Lock()
	if t.superseded() {
		// A later move of this card owns its position now and reconciles
		// every list of the chain if it fails too.
		s.mu.Unlock()
		s.log.WithFields(fields).Debug("failed move superseded by a queued move")
		return s.fail("move card", fields, err)
	}
	lists := append([]int(nil), s.chains[cardID]...)
	if !s.restoreLocked(snaps) {
		s.log.WithFields(fields).Warn("lists changed since the move, skipping snapshot restore")
	}
	s.mu.Unlock()

	if !errors.Is(err, api.ErrUnauthorized) {
		rctx := context.WithoutCancel(ctx)
		for _, id := range lists {
			s.refetchList(rctx, id, t)
		}
	}
	return s.fail("move card", fields, err)
}

// chain records the lists a card's queued moves touched. Call with s.mu
// held.
func (s *BoardStore) chain(cardID int, listIDs ...int) {
	for _, id := range listIDs {
		seen := false
		for _, have := range s.chains[cardID] {
			if have == id {
				seen = true
				break
			}
		}
		if !seen {
			s.chains[cardID] = append(s.chains[cardID], id)
		}
	}
}

// finishMove releases the card's next queued move, or forgets the chain
// when there is none.
func (s *BoardStore) finishMove(t *ticket) {
	s.mu.Lock()
	if !t.superseded() {
		delete(s.chains, t.cardID)
	}
	s.mu.Unlock()
	t.done()
}

type listSnapshot struct {
	listID  int
	cards   []model.Card
	version uint64 // the version this move produced
}

// restoreLocked puts the snapshot back when none of its lists changed
// since the move. A partial restore could drop the card from both lists,
// so it is all or nothing. Call with s.mu held.
func (s *BoardStore) restoreLocked(snaps []listSnapshot) bool {
	for _, sn := range snaps {
		if s.versions[sn.listID] != sn.version {
			return false
		}
	}
	for _, sn := range snaps {
		if l := s.listPtr(sn.listID); l != nil {
			l.Cards = sn.cards
			s.versions[sn.listID]++
		}
	}
	return true
}

// refetchList overwrites a list's cards with the server's. If a move of
// t's card was queued meanwhile and put it in another list, the server's
// stale copy of that card is left out.
func (s *BoardStore) refetchList(ctx context.Context, listID int, t *ticket) {
	cards, err := s.api.ListCards(ctx, listID)
	if err != nil {
		s.log.WithField("list_id", listID).WithError(s.handle(err)).Warn("refetch list failed")
		return
	}
	sortCards(cards)
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.listPtr(listID)
	if l == nil {
		return
	}
	if t.superseded() {
		if bi, li, _ := s.locateCard(t.cardID); bi >= 0 && s.boards[bi].Lists[li].ID != listID {
			cards = withoutCard(cards, t.cardID)
		}
	}
	l.Cards = cards
	s.versions[listID]++
}

func withoutCard(cards []model.Card, cardID int) []model.Card {
	out := cards[:0]
	for _, c := range cards {
		if c.ID != cardID {
			out = append(out, c)
		}
	}
	return out
}

// MoveList reorders a board's lists locally, renumbers their order and
// then saves every changed order. Save failures are reported but not
// rolled back.
func (s *BoardStore) MoveList(ctx context.Context, boardID, from, to int) error {
	s.mu.Lock()
	bi := s.boardIndex(boardID)
	if bi < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !s.canEdit(bi) {
		s.mu.Unlock()
		return ErrForbidden
	}
	lists := s.boards[bi].Lists
	if from < 0 || from >= len(lists) || to < 0 || to >= len(lists) {
		s.mu.Unlock()
		return ErrOutOfRange
	}
	moved := lists[from]
	lists = append(lists[:from], lists[from+1:]...)
	lists = append(lists, model.List{})
	copy(lists[to+1:], lists[to:])
	lists[to] = moved

	type change struct{ id, order int }
	var changed []change
	for i := range lists {
		if lists[i].Order != i {
			lists[i].Order = i
			changed = append(changed, change{lists[i].ID, i})
		}
	}
	s.boards[bi].Lists = lists
	s.mu.Unlock()

	var errs []error
	for _, c := range changed {
		order := c.order
		if _, err := s.api.UpdateList(ctx, c.id, model.ListInput{Order: &order}); err != nil {
			err = s.handle(err)
			s.log.WithFields(log.Fields{"board_id": boardID, "list_id": c.id}).WithError(err).Warn("save list order failed")
			errs = append(errs, err)
			if errors.Is(err, api.ErrUnauthorized) {
				break
			}
		}
	}
	if len(errs) > 0 {
		s.alerts.Push(alert.Warning, "List order could not be saved and may reset on reload.")
		return errors.Join(errs...)
	}
	return nil
}

func (s *BoardStore) AddBoard(ctx context.Context, in model.BoardInput) (model.Board, error) {
	b, err := s.api.CreateBoard(ctx, in)
	if err != nil {
		return model.Board{}, s.fail("create board", nil, err)
	}
	s.mu.Lock()
	if b.Lists != nil {
		sortLists(b.Lists)
	}
	s.upsertBoard(b)
	s.mu.Unlock()
	return b.Clone(), nil
}

func (s *BoardStore) UpdateBoard(ctx context.Context, id int, in model.BoardInput) (model.Board, error) {
	if err := s.require(id, canEditRole); err != nil {
		return model.Board{}, err
	}
	b, err := s.api.UpdateBoard(ctx, id, in)
	if err != nil {
		return model.Board{}, s.fail("update board", log.Fields{"board_id": id}, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi := s.boardIndex(id); bi >= 0 {
		if b.Lists == nil {
			b.Lists = s.boards[bi].Lists
		} else {
			sortLists(b.Lists)
		}
		if b.Members == nil {
			b.Members = s.boards[bi].Members
		}
	}
	s.upsertBoard(b)
	return b.Clone(), nil
}

// DeleteBoard is for owners only.
func (s *BoardStore) DeleteBoard(ctx context.Context, id int) error {
	if err := s.require(id, func(r model.Role) bool { return r == model.RoleOwner }); err != nil {
		return err
	}
	if err := s.api.DeleteBoard(ctx, id); err != nil {
		return s.fail("delete board", log.Fields{"board_id": id}, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi := s.boardIndex(id); bi >= 0 {
		for _, l := range s.boards[bi].Lists {
			delete(s.versions, l.ID)
		}
		s.boards = append(s.boards[:bi], s.boards[bi+1:]...)
	}
	return nil
}

// AddList appends a list to the end of the board.
func (s *BoardStore) AddList(ctx context.Context, boardID int, title string) (model.List, error) {
	if err := s.require(boardID, canEditRole); err != nil {
		return model.List{}, err
	}
	s.mu.Lock()
	order := 0
	if bi := s.boardIndex(boardID); bi >= 0 {
		order = len(s.boards[bi].Lists)
	}
	s.mu.Unlock()

	l, err := s.api.CreateList(ctx, model.ListInput{Board: boardID, Title: title, Order: &order})
	if err != nil {
		return model.List{}, s.fail("create list", log.Fields{"board_id": boardID}, err)
	}
	if l.Board == 0 {
		l.Board = boardID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi := s.boardIndex(l.Board); bi >= 0 {
		b := &s.boards[bi]
		if i := b.ListIndex(l.ID); i >= 0 {
			b.Lists[i] = l
		} else {
			b.Lists = append(b.Lists, l)
		}
		s.versions[l.ID]++
	}
	return l.Clone(), nil
}

func (s *BoardStore) UpdateList(ctx context.Context, listID int, in model.ListInput) (model.List, error) {
	boardID, err := s.requireList(listID, canEditRole)
	if err != nil {
		return model.List{}, err
	}
	fields := log.Fields{"board_id": boardID, "list_id": listID}
	l, err := s.api.UpdateList(ctx, listID, in)
	if err != nil {
		return model.List{}, s.fail("update list", fields, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.listPtr(listID); cur != nil {
		if l.Cards == nil {
			l.Cards = cur.Cards
		}
		if l.Board == 0 {
			l.Board = cur.Board
		}
		*cur = l
		s.versions[listID]++
	}
	return l.Clone(), nil
}

// DeleteList removes exactly that list. Its cards go with it; the server
// cascades on its side.
func (s *BoardStore) DeleteList(ctx context.Context, listID int) error {
	boardID, err := s.requireList(listID, canEditRole)
	if err != nil {
		return err
	}
	if err := s.api.DeleteList(ctx, listID); err != nil {
		return s.fail("delete list", log.Fields{"board_id": boardID, "list_id": listID}, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi, li := s.locateList(listID); bi >= 0 {
		b := &s.boards[bi]
		b.Lists = append(b.Lists[:li], b.Lists[li+1:]...)
		delete(s.versions, listID)
	}
	return nil
}

// AddCard creates a card; in.List and in.Title are required.
func (s *BoardStore) AddCard(ctx context.Context, in model.CardInput) (model.Card, error) {
	if in.List == nil {
		return model.Card{}, errors.New("card needs a list")
	}
	if _, err := s.requireList(*in.List, anyRole); err != nil {
		return model.Card{}, err
	}
	c, err := s.api.CreateCard(ctx, in)
	if err != nil {
		return model.Card{}, s.fail("create card", log.Fields{"list_id": *in.List}, err)
	}
	if c.List == 0 {
		c.List = *in.List
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeCard(c)
	return c.Clone(), nil
}

func (s *BoardStore) UpdateCard(ctx context.Context, cardID int, in model.CardInput) (model.Card, error) {
	listID, err := s.requireCard(cardID)
	if err != nil {
		return model.Card{}, err
	}
	c, err := s.api.UpdateCard(ctx, cardID, in)
	if err != nil {
		return model.Card{}, s.fail("update card", log.Fields{"card_id": cardID, "list_id": listID}, err)
	}
	if c.List == 0 {
		c.List = listID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeCard(c)
	return c.Clone(), nil
}

func (s *BoardStore) DeleteCard(ctx context.Context, cardID int) error {
	listID, err := s.requireCard(cardID)
	if err != nil {
		return err
	}
	if err := s.api.DeleteCard(ctx, cardID); err != nil {
		return s.fail("delete card", log.Fields{"card_id": cardID, "list_id": listID}, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi, li, ci := s.locateCard(cardID); bi >= 0 {
		l := &s.boards[bi].Lists[li]
		l.Cards = append(l.Cards[:ci], l.Cards[ci+1:]...)
		s.versions[l.ID]++
	}
	return nil
}

// Card returns a copy of a card and the id of the list holding it.
func (s *BoardStore) Card(cardID int) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bi, li, ci := s.locateCard(cardID)
	if bi < 0 || !s.isMember(bi) {
		return model.Card{}, false
	}
	return s.boards[bi].Lists[li].Cards[ci].Clone(), true
}

// SearchUsers finds users who are not yet members of the board.
func (s *BoardStore) SearchUsers(ctx context.Context, q string, boardID int) ([]model.User, error) {
	users, err := s.api.SearchUsers(ctx, q, boardID)
	if err != nil {
		return nil, s.fail("search users", log.Fields{"board_id": boardID}, err)
	}
	return users, nil
}

func (s *BoardStore) AddMember(ctx context.Context, boardID, userID int, role model.Role) error {
	return s.changeMember(ctx, "add member", boardID, userID, role, s.api.AddBoardMember)
}

func (s *BoardStore) UpdateMemberRole(ctx context.Context, boardID, userID int, role model.Role) error {
	return s.changeMember(ctx, "update member role", boardID, userID, role, s.api.UpdateMemberRole)
}

func (s *BoardStore) changeMember(ctx context.Context, op string, boardID, userID int, role model.Role,
	call func(context.Context, int, int, model.Role) error) error {
	if !role.Valid() {
		return errors.New("invalid role " + string(role))
	}
	if err := s.require(boardID, canEditRole); err != nil {
		return err
	}
	if err := call(ctx, boardID, userID, role); err != nil {
		return s.fail(op, log.Fields{"board_id": boardID, "user_id": userID}, err)
	}
	return s.FetchBoards(ctx)
}

// FetchLabels replaces a board's labels with the server's.
func (s *BoardStore) FetchLabels(ctx context.Context, boardID int) ([]model.Label, error) {
	if err := s.require(boardID, anyRole); err != nil {
		return nil, err
	}
	ls, err := s.api.ListLabels(ctx, boardID)
	if err != nil {
		return nil, s.fail("load labels", log.Fields{"board_id": boardID}, err)
	}
	if ls == nil {
		ls = []model.Label{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi := s.boardIndex(boardID); bi >= 0 {
		s.boards[bi].Labels = ls
	}
	return append([]model.Label(nil), ls...), nil
}

// AddLabel creates a label on a board and merges it by id.
func (s *BoardStore) AddLabel(ctx context.Context, boardID int, in model.Label) (model.Label, error) {
	if err := s.require(boardID, anyRole); err != nil {
		return model.Label{}, err
	}
	in.Board = boardID
	l, err := s.api.CreateLabel(ctx, in)
	if err != nil {
		return model.Label{}, s.fail("create label", log.Fields{"board_id": boardID}, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if bi := s.boardIndex(boardID); bi >= 0 {
		labels := s.boards[bi].Labels
		merged := false
		for i := range labels {
			if labels[i].ID == l.ID {
				labels[i], merged = l, true
			}
		}
		if !merged {
			s.boards[bi].Labels = append(labels, l)
		}
	}
	return l, nil
}

// EnsureList makes sure the list's board is in local state, fetching
// boards as needed, and returns the board id.
func (s *BoardStore) EnsureList(ctx context.Context, listID int) (int, error) {
	return s.ensure(ctx, func() int {
		bi, _ := s.locateList(listID)
		return bi
	})
}

// EnsureCard is EnsureList for a card.
func (s *BoardStore) EnsureCard(ctx context.Context, cardID int) (int, error) {
	return s.ensure(ctx, func() int {
		bi, _, _ := s.locateCard(cardID)
		return bi
	})
}

func (s *BoardStore) ensure(ctx context.Context, find func() int) (int, error) {
	lookup := func() (int, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if bi := find(); bi >= 0 {
			return s.boards[bi].ID, true
		}
		return 0, false
	}
	if id, ok := lookup(); ok {
		return id, nil
	}
	if err := s.FetchBoards(ctx); err != nil {
		return 0, err
	}
	if id, ok := lookup(); ok {
		return id, nil
	}
	for _, b := range s.Boards() {
		if b.Lists != nil {
			continue
		}
		if err := s.Load(ctx, b.ID); err != nil {
			return 0, err
		}
		if id, ok := lookup(); ok {
			return id, nil
		}
	}
	return 0, ErrNotFound
}

// --- helpers; callers hold s.mu unless noted ---

func anyRole(model.Role) bool       { return true }
func canEditRole(r model.Role) bool { return r.CanEdit() }

// require checks the current user's role on a board. Takes s.mu.
func (s *BoardStore) require(boardID int, allowed func(model.Role) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireLocked(s.boardIndex(boardID), allowed)
}

func (s *BoardStore) requireLocked(bi int, allowed func(model.Role) bool) error {
	if bi < 0 {
		return ErrNotFound
	}
	m, ok := s.boards[bi].Membership(s.userID)
	if !ok || !allowed(m.Role) {
		return ErrForbidden
	}
	return nil
}

// requireList returns the list's board id. Takes s.mu.
func (s *BoardStore) requireList(listID int, allowed func(model.Role) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bi, _ := s.locateList(listID)
	if err := s.requireLocked(bi, allowed); err != nil {
		return 0, err
	}
	return s.boards[bi].ID, nil
}

// requireCard returns the card's list id. Takes s.mu.
func (s *BoardStore) requireCard(cardID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bi, li, _ := s.locateCard(cardID)
	if err := s.requireLocked(bi, anyRole); err != nil {
		return 0, err
	}
	return s.boards[bi].Lists[li].ID, nil
}

func (s *BoardStore) isMember(bi int) bool {
	_, ok := s.boards[bi].Membership(s.userID)
	return ok
}

func (s *BoardStore) canEdit(bi int) bool {
	m, ok := s.boards[bi].Membership(s.userID)
	return ok && m.Role.CanEdit()
}

func (s *BoardStore) boardIndex(id int) int {
	for i := range s.boards {
		if s.boards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *BoardStore) locateList(listID int) (bi, li int) {
	for i := range s.boards {
		if j := s.boards[i].ListIndex(listID); j >= 0 {
			return i, j
		}
	}
	return -1, -1
}

func (s *BoardStore) locateCard(cardID int) (bi, li, ci int) {
	for i := range s.boards {
		for j := range s.boards[i].Lists {
			if k := s.boards[i].Lists[j].CardIndex(cardID); k >= 0 {
				return i, j, k
			}
		}
	}
	return -1, -1, -1
}

func (s *BoardStore) listPtr(listID int) *model.List {
	bi, li := s.locateList(listID)
	if bi < 0 {
		return nil
	}
	return &s.boards[bi].Lists[li]
}

func (s *BoardStore) upsertBoard(b model.Board) {
	if i := s.boardIndex(b.ID); i >= 0 {
		s.boards[i] = b
		return
	}
	s.boards = append(s.boards, b)
}

func (s *BoardStore) bumpLists(lists []model.List) {
	for _, l := range lists {
		s.versions[l.ID]++
	}
}

// mergeCard replaces the card by id or appends it to its list. A card the
// server put in another list moves there at its reported order.
func (s *BoardStore) mergeCard(c model.Card) {
	idx := -1
	if bi, li, ci := s.locateCard(c.ID); bi >= 0 {
		l := &s.boards[bi].Lists[li]
		if l.ID == c.List {
			l.Cards[ci] = c
			s.versions[l.ID]++
			return
		}
		l.Cards = append(l.Cards[:ci], l.Cards[ci+1:]...)
		s.versions[l.ID]++
		idx = c.Order
	}
	if l := s.listPtr(c.List); l != nil {
		if idx < 0 || idx > len(l.Cards) {
			idx = len(l.Cards)
		}
		l.Cards = insertCard(l.Cards, idx, c)
		s.versions[l.ID]++
	}
}

func insertCard(cards []model.Card, i int, c model.Card) []model.Card {
	cards = append(cards, model.Card{})
	copy(cards[i+1:], cards[i:])
	cards[i] = c
	return cards
}

func renumberCards(cards []model.Card) {
	for i := range cards {
		cards[i].Order = i
	}
}

func cloneCards(cards []model.Card) []model.Card {
	if cards == nil {
		return nil
	}
	out := make([]model.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}

func sortCards(cards []model.Card) {
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Order < cards[j].Order })
}

func sortLists(lists []model.List) {
	sort.SliceStable(lists, func(i, j int) bool { return lists[i].Order < lists[j].Order })
	for i := range lists {
		sortCards(lists[i].Cards)
	}
}
