package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Makepad-fr/board/internal/alert"
	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/fakeapi"
	"github.com/Makepad-fr/board/internal/model"
)

type fixture struct {
	srv    *fakeapi.Server
	url    string
	client *api.Client
	st     *BoardStore
	alerts *alert.Center

	owner, member, outsider model.User
	board                   model.Board
	l1, l2                  model.List
	c1, c2                  model.Card
}

func newClient(t *testing.T, url, token string) *api.Client {
	t.Helper()
	logger, _ := test.NewNullLogger()
	c, err := api.New(url+"/api/", api.StaticToken(token), api.WithLogger(logger))
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

// newFixture seeds board "Roadmap" with Todo:[C1,C2] and Done:[] owned by
// ana, with bo as a plain member, and loads it into a store for ana.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{srv: fakeapi.New()}
	ts := httptest.NewServer(f.srv)
	t.Cleanup(ts.Close)
	f.url = ts.URL

	f.owner = f.srv.AddUser("ana", "pw")
	f.member = f.srv.AddUser("bo", "pw")
	f.outsider = f.srv.AddUser("cy", "pw")
	f.board = f.srv.SeedBoard(f.owner.ID, "Roadmap")
	f.srv.SetMember(f.board.ID, f.member.ID, model.RoleMember)
	f.l1 = f.srv.SeedList(f.board.ID, "Todo")
	f.l2 = f.srv.SeedList(f.board.ID, "Done")
	f.c1 = f.srv.SeedCard(f.l1.ID, "C1")
	f.c2 = f.srv.SeedCard(f.l1.ID, "C2")

	f.client = newClient(t, ts.URL, f.srv.IssueToken(f.owner.ID))
	return f.withStore(t, f.client, opts...)
}

func (f *fixture) withStore(t *testing.T, b Backend, opts ...Option) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	f.alerts = alert.New(alert.WithTTL(time.Hour))
	opts = append([]Option{WithAlerts(f.alerts), WithLogger(logger)}, opts...)
	f.st = NewBoardStore(b, opts...)
	f.st.SetCurrentUser(f.owner.ID)
	if err := f.st.Load(context.Background(), f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

func (f *fixture) localCards(t *testing.T, listID int) []int {
	t.Helper()
	b := f.st.Board(f.board.ID)
	if b == nil {
		t.Fatal("board not accessible")
	}
	l := b.FindList(listID)
	if l == nil {
		t.Fatalf("list %d missing", listID)
	}
	return cardIDs(l.Cards)
}

func (f *fixture) serverCards(listID int) []int {
	return cardIDs(f.srv.CardsIn(listID))
}

func cardIDs(cards []model.Card) []int {
	out := []int{}
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func assertIDs(t *testing.T, what string, got, want []int) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s: got %v, want %v", what, got, want)
	}
}

func lastAlert(t *testing.T, c *alert.Center) alert.Alert {
	t.Helper()
	as := c.Active()
	if len(as) == 0 {
		t.Fatal("expected an alert")
	}
	return as[len(as)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMoveCardAcrossLists(t *testing.T) {
	f := newFixture(t)
	if err := f.st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l2.ID, 0); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	assertIDs(t, "local Todo", f.localCards(t, f.l1.ID), []int{f.c2.ID})
	assertIDs(t, "local Done", f.localCards(t, f.l2.ID), []int{f.c1.ID})
	assertIDs(t, "server Done", f.serverCards(f.l2.ID), []int{f.c1.ID})

	c, ok := f.st.Card(f.c1.ID)
	if !ok || c.List != f.l2.ID {
		t.Fatalf("card not reassigned: %+v", c)
	}
	if n := len(f.alerts.Active()); n != 0 {
		t.Fatalf("unexpected alerts: %d", n)
	}
}

func TestMoveCardWithinListAfterItself(t *testing.T) {
	f := newFixture(t)
	c3 := f.srv.SeedCard(f.l1.ID, "C3")
	if err := f.st.Load(context.Background(), f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l1.ID, 2); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	want := []int{f.c2.ID, c3.ID, f.c1.ID}
	assertIDs(t, "local", f.localCards(t, f.l1.ID), want)
	assertIDs(t, "server", f.serverCards(f.l1.ID), want)
}

func TestMoveCardClampsIndex(t *testing.T) {
	f := newFixture(t)
	if err := f.st.MoveCard(context.Background(), f.c2.ID, f.l1.ID, f.l2.ID, 99); err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	assertIDs(t, "local Done", f.localCards(t, f.l2.ID), []int{f.c2.ID})
}

func TestMoveCardUnknownIDs(t *testing.T) {
	f := newFixture(t)
	before := len(f.srv.Requests())
	cases := []struct {
		name           string
		card, src, dst int
	}{
		{"unknown card", 9999, f.l1.ID, f.l2.ID},
		{"card not in source", f.c1.ID, f.l2.ID, f.l1.ID},
		{"unknown destination", f.c1.ID, f.l1.ID, 9999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.st.MoveCard(context.Background(), tc.card, tc.src, tc.dst, 0)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
	if after := len(f.srv.Requests()); after != before {
		t.Fatalf("unexpected requests: %v", f.srv.Requests()[before:])
	}
	assertIDs(t, "Todo untouched", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
}

func TestMoveCardFailureReconcilesWithServer(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/cards/%d/", f.c1.ID), http.StatusInternalServerError, 1)

	err := f.st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l2.ID, 0)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 error, got %v", err)
	}
	assertIDs(t, "local Todo", f.localCards(t, f.l1.ID), f.serverCards(f.l1.ID))
	assertIDs(t, "local Done", f.localCards(t, f.l2.ID), f.serverCards(f.l2.ID))
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
	assertIDs(t, "Done", f.localCards(t, f.l2.ID), []int{})

	if a := lastAlert(t, f.alerts); a.Kind != alert.Error {
		t.Fatalf("expected error alert, got %+v", a)
	}
}

func TestMoveCardFailureTakesServerStateOverSnapshot(t *testing.T) {
	f := newFixture(t)
	// someone else adds a card to Done after we loaded
	other := newClient(t, f.url, f.srv.IssueToken(f.member.ID))
	title := "from bo"
	c3, err := other.CreateCard(context.Background(), model.CardInput{List: &f.l2.ID, Title: &title})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/cards/%d/", f.c1.ID), http.StatusBadRequest, 1)

	if err := f.st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l2.ID, 0); err == nil {
		t.Fatal("expected error")
	}
	assertIDs(t, "Done", f.localCards(t, f.l2.ID), []int{c3.ID})
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
}

func TestMoveCardRefetchFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/cards/%d/", f.c1.ID), http.StatusInternalServerError, 1)
	f.srv.Fail(http.MethodGet, "/api/cards/", http.StatusServiceUnavailable, -1)

	if err := f.st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l2.ID, 0); err == nil {
		t.Fatal("expected error")
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
	assertIDs(t, "Done", f.localCards(t, f.l2.ID), []int{})
}

func TestMoveCardTransportFailure(t *testing.T) {
	f := newFixture(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	broken := newClient(t, dead.URL, "x")
	st := NewBoardStore(&splitBackend{Backend: f.client, writes: broken}, WithAlerts(f.alerts))
	st.SetCurrentUser(f.owner.ID)
	if err := st.Load(context.Background(), f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l2.ID, 0)
	if !errors.Is(err, api.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	b := st.Board(f.board.ID)
	assertIDs(t, "Todo", cardIDs(b.FindList(f.l1.ID).Cards), []int{f.c1.ID, f.c2.ID})
	if a := lastAlert(t, f.alerts); a.Message == "" {
		t.Fatal("expected alert text")
	}
}

// splitBackend sends card updates to a different backend.
type splitBackend struct {
	Backend
	writes Backend
}

func (s *splitBackend) UpdateCard(ctx context.Context, id int, in model.CardInput) (model.Card, error) {
	return s.writes.UpdateCard(ctx, id, in)
}

// gatedBackend holds the first card update until release is closed and
// records the destination list of every update in arrival order.
type gatedBackend struct {
	Backend
	mu      sync.Mutex
	dests   []int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) UpdateCard(ctx context.Context, id int, in model.CardInput) (model.Card, error) {
	g.mu.Lock()
	g.dests = append(g.dests, *in.List)
	n := len(g.dests)
	g.mu.Unlock()
	if n == 1 {
		close(g.entered)
		<-g.release
	}
	return g.Backend.UpdateCard(ctx, id, in)
}

func TestMoveCardRequestsFollowMoveOrder(t *testing.T) {
	f := newFixture(t)
	g := &gatedBackend{Backend: f.client, entered: make(chan struct{}), release: make(chan struct{})}
	f.withStore(t, g)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- f.st.MoveCard(ctx, f.c1.ID, f.l1.ID, f.l2.ID, 0) }()
	<-g.entered

	second := make(chan error, 1)
	go func() { second <- f.st.MoveCard(ctx, f.c1.ID, f.l2.ID, f.l1.ID, 1) }()
	waitFor(t, func() bool {
		b := f.st.Board(f.board.ID)
		return b.FindList(f.l1.ID).CardIndex(f.c1.ID) == 1
	})
	if !f.st.queue.pending(f.c1.ID) {
		t.Fatal("expected queued request")
	}
	close(g.release)

	if err := <-first; err != nil {
		t.Fatalf("first move: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("second move: %v", err)
	}
	g.mu.Lock()
	dests := append([]int(nil), g.dests...)
	g.mu.Unlock()
	assertIDs(t, "request order", dests, []int{f.l2.ID, f.l1.ID})
	assertIDs(t, "server Todo", f.serverCards(f.l1.ID), []int{f.c2.ID, f.c1.ID})
	assertIDs(t, "local Todo", f.localCards(t, f.l1.ID), []int{f.c2.ID, f.c1.ID})
	if f.st.queue.pending(f.c1.ID) {
		t.Fatal("queue not drained")
	}
}

// countCard reports how many local lists hold cardID and the last one seen.
func (f *fixture) countCard(t *testing.T, cardID int) (n, listID int) {
	t.Helper()
	for _, l := range f.st.Board(f.board.ID).Lists {
		if l.CardIndex(cardID) >= 0 {
			n++
			listID = l.ID
		}
	}
	return n, listID
}

// queueTwoMoves moves C1 Todo -> Done, holds that request, queues a second
// move Done -> later, then lets both run.
func queueTwoMoves(t *testing.T, f *fixture, later model.List) (first, second error) {
	t.Helper()
	g := &gatedBackend{Backend: f.client, entered: make(chan struct{}), release: make(chan struct{})}
	f.withStore(t, g)
	ctx := context.Background()

	firstCh := make(chan error, 1)
	go func() { firstCh <- f.st.MoveCard(ctx, f.c1.ID, f.l1.ID, f.l2.ID, 0) }()
	<-g.entered

	secondCh := make(chan error, 1)
	go func() { secondCh <- f.st.MoveCard(ctx, f.c1.ID, f.l2.ID, later.ID, 0) }()
	waitFor(t, func() bool {
		return f.st.Board(f.board.ID).FindList(later.ID).CardIndex(f.c1.ID) == 0
	})
	close(g.release)
	return <-firstCh, <-secondCh
}

func TestFailedMoveLeavesQueuedMoveInCharge(t *testing.T) {
	f := newFixture(t)
	later := f.srv.SeedList(f.board.ID, "Later")
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/cards/%d/", f.c1.ID), http.StatusInternalServerError, 1)

	first, second := queueTwoMoves(t, f, later)
	if first == nil {
		t.Fatal("first move should fail")
	}
	if second != nil {
		t.Fatalf("second move: %v", second)
	}
	if n, at := f.countCard(t, f.c1.ID); n != 1 || at != later.ID {
		t.Fatalf("C1 in %d lists, last %d; want only list %d", n, at, later.ID)
	}
	assertIDs(t, "local Todo", f.localCards(t, f.l1.ID), []int{f.c2.ID})
	assertIDs(t, "server Later", f.serverCards(later.ID), []int{f.c1.ID})
	if f.st.queue.pending(f.c1.ID) {
		t.Fatal("queue not drained")
	}
}

func TestBothQueuedMovesFailingReconcilesEveryList(t *testing.T) {
	f := newFixture(t)
	later := f.srv.SeedList(f.board.ID, "Later")
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/cards/%d/", f.c1.ID), http.StatusInternalServerError, 2)

	first, second := queueTwoMoves(t, f, later)
	if first == nil || second == nil {
		t.Fatalf("both moves should fail: %v / %v", first, second)
	}
	if n, at := f.countCard(t, f.c1.ID); n != 1 || at != f.l1.ID {
		t.Fatalf("C1 in %d lists, last %d; want only list %d", n, at, f.l1.ID)
	}
	for _, l := range []model.List{f.l1, f.l2, later} {
		assertIDs(t, l.Title, f.localCards(t, l.ID), f.serverCards(l.ID))
	}
}

func TestFailedMoveSkipsPartialRestore(t *testing.T) {
	f := newFixture(t)
	logger, hook := test.NewNullLogger()
	g := &gatedBackend{Backend: f.client, entered: make(chan struct{}), release: make(chan struct{})}
	f.withStore(t, g, WithLogger(logger))
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/cards/%d/", f.c1.ID), http.StatusInternalServerError, 1)
	ctx := context.Background()

	moved := make(chan error, 1)
	go func() { moved <- f.st.MoveCard(ctx, f.c1.ID, f.l1.ID, f.l2.ID, 0) }()
	<-g.entered

	// Done changes under the in-flight move, then the server stops
	// answering card reads so only the local state is left.
	title := "C3"
	c3, err := f.st.AddCard(ctx, model.CardInput{List: &f.l2.ID, Title: &title})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	f.srv.Fail(http.MethodGet, "/api/cards/", http.StatusServiceUnavailable, -1)
	close(g.release)
	if err := <-moved; err == nil {
		t.Fatal("move should fail")
	}

	if n, at := f.countCard(t, f.c1.ID); n != 1 || at != f.l2.ID {
		t.Fatalf("C1 in %d lists, last %d", n, at)
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c2.ID})
	assertIDs(t, "Done", f.localCards(t, f.l2.ID), []int{f.c1.ID, c3.ID})

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "lists changed since the move, skipping snapshot restore" {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a warning about the skipped restore")
	}
}

func TestAccessChecks(t *testing.T) {
	f := newFixture(t)
	id := f.board.ID

	if !f.st.CanAccessBoard(id) || !f.st.CanEditBoard(id) {
		t.Fatal("owner should access and edit")
	}

	f.st.SetCurrentUser(f.member.ID)
	if !f.st.CanAccessBoard(id) || f.st.CanEditBoard(id) {
		t.Fatal("member should access but not edit")
	}

	f.srv.SetMember(id, f.member.ID, model.RoleAdmin)
	if err := f.st.Load(context.Background(), id); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.st.CanEditBoard(id) {
		t.Fatal("admin should edit")
	}

	f.st.SetCurrentUser(f.outsider.ID)
	if f.st.CanAccessBoard(id) || f.st.CanEditBoard(id) {
		t.Fatal("outsider should neither access nor edit")
	}
	if f.st.Board(id) != nil {
		t.Fatal("Board must be nil for non-members")
	}
	if len(f.st.Boards()) != 0 {
		t.Fatal("Boards must hide non-member boards")
	}
	if f.st.CanAccessBoard(424242) || f.st.CanEditBoard(424242) {
		t.Fatal("unknown board must be denied")
	}
}

func TestLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.st.SetCurrentUser(f.member.ID)
	bug, err := f.st.AddLabel(ctx, f.board.ID, model.Label{Name: "Bug", Color: "red"})
	if err != nil {
		t.Fatalf("AddLabel: %v", err)
	}
	if bug.ID == 0 || bug.Board != f.board.ID {
		t.Fatalf("unexpected label %+v", bug)
	}
	if ls := f.st.Board(f.board.ID).Labels; len(ls) != 1 || ls[0].ID != bug.ID {
		t.Fatalf("label not merged: %+v", ls)
	}

	// a reload keeps labels the board listing does not carry
	if err := f.st.Load(ctx, f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ls := f.st.Board(f.board.ID).Labels; len(ls) != 1 {
		t.Fatalf("labels lost on reload: %+v", ls)
	}

	fresh := NewBoardStore(f.client)
	fresh.SetCurrentUser(f.owner.ID)
	if err := fresh.Load(ctx, f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ls, err := fresh.FetchLabels(ctx, f.board.ID)
	if err != nil {
		t.Fatalf("FetchLabels: %v", err)
	}
	if len(ls) != 1 || ls[0].Name != "Bug" {
		t.Fatalf("unexpected labels %+v", ls)
	}
	ls[0].Name = "changed"
	if fresh.Board(f.board.ID).Labels[0].Name != "Bug" {
		t.Fatal("FetchLabels returned shared state")
	}

	f.st.SetCurrentUser(f.outsider.ID)
	before := len(f.srv.Requests())
	if _, err := f.st.FetchLabels(ctx, f.board.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("FetchLabels: expected ErrForbidden, got %v", err)
	}
	if _, err := f.st.AddLabel(ctx, f.board.ID, model.Label{Name: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("AddLabel: expected ErrForbidden, got %v", err)
	}
	if after := len(f.srv.Requests()); after != before {
		t.Fatalf("forbidden operations hit the server: %v", f.srv.Requests()[before:])
	}
}

func TestMemberCannotChangeStructure(t *testing.T) {
	f := newFixture(t)
	f.st.SetCurrentUser(f.member.ID)
	before := len(f.srv.Requests())
	ctx := context.Background()

	if _, err := f.st.AddList(ctx, f.board.ID, "Nope"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("AddList: expected ErrForbidden, got %v", err)
	}
	if err := f.st.DeleteList(ctx, f.l1.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("DeleteList: expected ErrForbidden, got %v", err)
	}
	if err := f.st.MoveList(ctx, f.board.ID, 0, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("MoveList: expected ErrForbidden, got %v", err)
	}
	if err := f.st.DeleteBoard(ctx, f.board.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("DeleteBoard: expected ErrForbidden, got %v", err)
	}
	if after := len(f.srv.Requests()); after != before {
		t.Fatalf("forbidden operations hit the server: %v", f.srv.Requests()[before:])
	}
}

func TestDeleteListRemovesExactlyThatList(t *testing.T) {
	f := newFixture(t)
	l3 := f.srv.SeedList(f.board.ID, "Later")
	c3 := f.srv.SeedCard(f.l2.ID, "C3")
	ctx := context.Background()
	if err := f.st.Load(ctx, f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := f.st.DeleteList(ctx, f.l2.ID); err != nil {
		t.Fatalf("DeleteList: %v", err)
	}
	b := f.st.Board(f.board.ID)
	var ids []int
	for _, l := range b.Lists {
		ids = append(ids, l.ID)
	}
	assertIDs(t, "lists", ids, []int{f.l1.ID, l3.ID})
	assertIDs(t, "Todo cards", cardIDs(b.Lists[0].Cards), []int{f.c1.ID, f.c2.ID})
	if _, ok := f.st.Card(c3.ID); ok {
		t.Fatal("card of deleted list still present")
	}
	if len(f.srv.ListsOf(f.board.ID)) != 2 {
		t.Fatal("server list not deleted")
	}
}

func TestAddCardRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := "T"
	c, err := f.st.AddCard(ctx, model.CardInput{List: &f.l2.ID, Title: &title})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	cards, err := f.client.ListCards(ctx, f.l2.ID)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	found := false
	for _, sc := range cards {
		if sc.Title == "T" && sc.ID == c.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created card not listed: %+v", cards)
	}
	assertIDs(t, "local Done", f.localCards(t, f.l2.ID), []int{c.ID})
}

func TestUpdateCardMergesAndMoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := "C2 renamed"
	if _, err := f.st.UpdateCard(ctx, f.c2.ID, model.CardInput{Title: &title}); err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	c, _ := f.st.Card(f.c2.ID)
	if c.Title != title {
		t.Fatalf("title not merged: %+v", c)
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})

	if _, err := f.st.UpdateCard(ctx, f.c2.ID, model.CardInput{List: &f.l2.ID}); err != nil {
		t.Fatalf("UpdateCard move: %v", err)
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID})
	assertIDs(t, "Done", f.localCards(t, f.l2.ID), []int{f.c2.ID})
}

func TestDeleteCard(t *testing.T) {
	f := newFixture(t)
	if err := f.st.DeleteCard(context.Background(), f.c1.ID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c2.ID})
	assertIDs(t, "server Todo", f.serverCards(f.l1.ID), []int{f.c2.ID})
}

func TestCreateFailureLeavesStateAndAlerts(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPost, "/api/cards/", http.StatusInternalServerError, 1)
	title := "x"
	if _, err := f.st.AddCard(context.Background(), model.CardInput{List: &f.l1.ID, Title: &title}); err == nil {
		t.Fatal("expected error")
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
	if a := lastAlert(t, f.alerts); a.Kind != alert.Error {
		t.Fatalf("expected error alert, got %+v", a)
	}
}

func TestValidationMessageSurfacesVerbatim(t *testing.T) {
	f := newFixture(t)
	blank := " "
	_, err := f.st.AddCard(context.Background(), model.CardInput{List: &f.l1.ID, Title: &blank})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Fields["title"][0] != "This field may not be blank." {
		t.Fatalf("expected title field error, got %v", err)
	}
	if a := lastAlert(t, f.alerts); a.Message != "title: This field may not be blank." {
		t.Fatalf("unexpected alert text %q", a.Message)
	}
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodGet, fmt.Sprintf("/api/boards/%d/", f.board.ID), http.StatusInternalServerError, 1)
	err := f.st.Load(context.Background(), f.board.ID)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.BoardID != f.board.ID {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if f.st.Loading(f.board.ID) {
		t.Fatal("loading flag left set")
	}
	assertIDs(t, "Todo", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.st.Load(ctx, f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.st.FetchBoards(ctx); err != nil {
		t.Fatalf("FetchBoards: %v", err)
	}
	bs := f.st.Boards()
	if len(bs) != 1 || len(bs[0].Lists) != 2 {
		t.Fatalf("unexpected boards: %+v", bs)
	}
}

func TestMoveList(t *testing.T) {
	f := newFixture(t)
	l3 := f.srv.SeedList(f.board.ID, "Later")
	ctx := context.Background()
	if err := f.st.Load(ctx, f.board.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := f.st.MoveList(ctx, f.board.ID, 0, 2); err != nil {
		t.Fatalf("MoveList: %v", err)
	}
	want := []int{f.l2.ID, l3.ID, f.l1.ID}
	b := f.st.Board(f.board.ID)
	var got []int
	for i, l := range b.Lists {
		got = append(got, l.ID)
		if l.Order != i {
			t.Fatalf("list %d has order %d at index %d", l.ID, l.Order, i)
		}
	}
	assertIDs(t, "local order", got, want)

	got = nil
	for _, l := range f.srv.ListsOf(f.board.ID) {
		got = append(got, l.ID)
	}
	assertIDs(t, "server order", got, want)

	if err := f.st.MoveList(ctx, f.board.ID, 0, 5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMoveListFailureIsNotRolledBack(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(http.MethodPatch, fmt.Sprintf("/api/lists/%d/", f.l1.ID), http.StatusInternalServerError, 1)
	err := f.st.MoveList(context.Background(), f.board.ID, 0, 1)
	if err == nil {
		t.Fatal("expected error")
	}
	b := f.st.Board(f.board.ID)
	if b.Lists[0].ID != f.l2.ID || b.Lists[1].ID != f.l1.ID {
		t.Fatalf("local order rolled back: %+v", b.Lists)
	}
	if a := lastAlert(t, f.alerts); a.Kind != alert.Warning {
		t.Fatalf("expected warning alert, got %+v", a)
	}
}

func TestBoardCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	nb, err := f.st.AddBoard(ctx, model.BoardInput{Title: "Side project"})
	if err != nil {
		t.Fatalf("AddBoard: %v", err)
	}
	if !f.st.CanEditBoard(nb.ID) {
		t.Fatal("creator should own the new board")
	}
	ub, err := f.st.UpdateBoard(ctx, nb.ID, model.BoardInput{Description: "weekends"})
	if err != nil || ub.Description != "weekends" || ub.Title != "Side project" {
		t.Fatalf("UpdateBoard: %+v %v", ub, err)
	}
	l, err := f.st.AddList(ctx, nb.ID, "Ideas")
	if err != nil {
		t.Fatalf("AddList: %v", err)
	}
	if _, err := f.st.UpdateList(ctx, l.ID, model.ListInput{Title: "Backlog"}); err != nil {
		t.Fatalf("UpdateList: %v", err)
	}
	if got := f.st.Board(nb.ID).Lists[0].Title; got != "Backlog" {
		t.Fatalf("list title not merged: %q", got)
	}
	if err := f.st.DeleteBoard(ctx, nb.ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if f.st.Board(nb.ID) != nil {
		t.Fatal("board still present after delete")
	}
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users, err := f.st.SearchUsers(ctx, "c", f.board.ID)
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != f.outsider.ID {
		t.Fatalf("unexpected search result: %+v", users)
	}
	if err := f.st.AddMember(ctx, f.board.ID, f.outsider.ID, model.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := f.st.UpdateMemberRole(ctx, f.board.ID, f.outsider.ID, model.RoleAdmin); err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	f.st.SetCurrentUser(f.outsider.ID)
	if !f.st.CanEditBoard(f.board.ID) {
		t.Fatal("new admin should edit")
	}
	if len(f.st.Board(f.board.ID).Lists) != 2 {
		t.Fatal("lists lost after member refresh")
	}
	if err := f.st.AddMember(ctx, f.board.ID, f.outsider.ID, "boss"); err == nil {
		t.Fatal("expected invalid role error")
	}
}

func TestUnauthorizedRunsHook(t *testing.T) {
	var seen []error
	hook := func(err error) error {
		seen = append(seen, err)
		return fmt.Errorf("signed out: %w", err)
	}
	f := newFixture(t, WithErrorHook(hook))
	f.srv.RevokeTokens()

	title := "x"
	_, err := f.st.AddCard(context.Background(), model.CardInput{List: &f.l1.ID, Title: &title})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("hook called %d times", len(seen))
	}

	seen = nil
	before := len(f.srv.Requests())
	if err := f.st.MoveCard(context.Background(), f.c1.ID, f.l1.ID, f.l2.ID, 0); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("hook called %d times on move", len(seen))
	}
	if reqs := f.srv.Requests()[before:]; len(reqs) != 1 {
		t.Fatalf("no refetch expected after 401, got %v", reqs)
	}
	assertIDs(t, "Todo restored", f.localCards(t, f.l1.ID), []int{f.c1.ID, f.c2.ID})
}

func TestEnsureListLoadsOnDemand(t *testing.T) {
	f := newFixture(t)
	st := NewBoardStore(f.client)
	st.SetCurrentUser(f.owner.ID)
	id, err := st.EnsureList(context.Background(), f.l2.ID)
	if err != nil || id != f.board.ID {
		t.Fatalf("EnsureList: %d %v", id, err)
	}
	id, err = st.EnsureCard(context.Background(), f.c2.ID)
	if err != nil || id != f.board.ID {
		t.Fatalf("EnsureCard: %d %v", id, err)
	}
	if _, err := st.EnsureList(context.Background(), 777777); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
