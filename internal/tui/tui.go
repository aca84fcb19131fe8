// Package tui is the interactive board view. Cards and lists are dragged
// with the keyboard (grab, pick a target, drop) or with the mouse; the
// dnd package decides where a drop lands and the board store saves it.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/alert"
	"github.com/Makepad-fr/board/internal/dnd"
	"github.com/Makepad-fr/board/internal/model"
	"github.com/Makepad-fr/board/internal/session"
	"github.com/Makepad-fr/board/internal/store"
)

const refreshEvery = 400 * time.Millisecond

// Deps are the collaborators the view needs.
type Deps struct {
	Boards *store.BoardStore
	Alerts *alert.Center
	Log    log.FieldLogger
	// Resolver overrides the default drop rules.
	Resolver *dnd.Resolver
}

type (
	loadedMsg struct{ err error }
	opMsg     struct {
		what string
		err  error
	}
	movedMsg struct {
		out dnd.Outcome
		err error
	}
	alertMsg alert.Alert
	tickMsg  time.Time
)

// Model is the bubbletea model of one board.
type Model struct {
	ctx     context.Context
	boardID int
	boards  *store.BoardStore
	alerts  *alert.Center
	alertCh <-chan alert.Alert
	log     log.FieldLogger

	board         *model.Board
	width, height int
	offset        int // first visible column

	col, row   int // focus
	tcol, trow int // keyboard drop target while dragging
	gesture    *dnd.Gesture
	mouseDrag  bool
	hover      dnd.Point

	adding bool
	input  textinput.Model
	keys   keyMap
	help   help.Model
	spin   spinner.Model
	busy   bool
	status string
	err    error
}

// New builds the view for boardID. Nothing is fetched until Init.
func New(ctx context.Context, boardID int, d Deps) Model {
	if d.Log == nil {
		d.Log = log.StandardLogger()
	}
	if d.Alerts == nil {
		d.Alerts = d.Boards.Alerts()
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New card title..."
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		ctx:     ctx,
		boardID: boardID,
		boards:  d.Boards,
		alerts:  d.Alerts,
		alertCh: d.Alerts.Subscribe(),
		log:     d.Log.WithField("board_id", boardID),
		gesture: dnd.NewGesture(boardID, d.Resolver, d.Boards),
		width:   80,
		height:  24,
		input:   ti,
		keys:    defaultKeys(),
		help:    help.New(),
		spin:    sp,
		busy:    true,
	}
}

// Run opens the board full screen until the user quits. A rejected
// session ends the view with an error wrapping session.ErrSignedOut.
func Run(ctx context.Context, boardID int, d Deps) error {
	p := tea.NewProgram(New(ctx, boardID, d), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitAlert(), tick(), m.spin.Tick)
}

func (m Model) load() tea.Cmd {
	ctx, bs, id := m.ctx, m.boards, m.boardID
	return func() tea.Msg {
		if err := bs.FetchBoards(ctx); err != nil {
			return loadedMsg{err}
		}
		return loadedMsg{bs.Load(ctx, id)}
	}
}

func (m Model) waitAlert() tea.Cmd {
	ch := m.alertCh
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg(a)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case loadedMsg:
		return m.finish("load", msg.err)

	case opMsg:
		return m.finish(msg.what, msg.err)

	case movedMsg:
		if errors.Is(msg.err, dnd.ErrNoGesture) {
			return m, nil
		}
		if msg.err == nil && msg.out.Moved {
			m.status = "saved"
			if l := m.listByID(msg.out.Dest.ListID); l >= 0 {
				m.col = l
				m.row = msg.out.Dest.Index
			}
		}
		return m.finish("move", msg.err)

	case alertMsg:
		return m, m.waitAlert()

	case tickMsg:
		m.refresh()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.mouse(msg)

	case tea.KeyMsg:
		if m.adding {
			return m.addInput(msg)
		}
		return m.key(msg)
	}
	return m, nil
}

// finish ends a request. A signed-out session closes the view.
func (m Model) finish(what string, err error) (tea.Model, tea.Cmd) {
	m.busy = false
	m.refresh()
	if err == nil {
		return m, nil
	}
	m.log.WithError(err).WithField("op", what).Debug("board view request failed")
	if errors.Is(err, session.ErrSignedOut) {
		m.err = err
		return m, tea.Quit
	}
	if what == "load" && m.board == nil {
		m.err = err
		return m, tea.Quit
	}
	return m, nil
}

// refresh copies the store's current board, optimistic changes included.
func (m *Model) refresh() {
	if b := m.boards.Board(m.boardID); b != nil {
		m.board = b
	}
	m.clamp()
}

func (m *Model) clamp() {
	if m.board == nil {
		return
	}
	n := len(m.board.Lists)
	m.col = clampInt(m.col, 0, n-1)
	m.tcol = clampInt(m.tcol, 0, n-1)
	if n > 0 {
		m.row = clampInt(m.row, 0, len(m.board.Lists[m.col].Cards)-1)
		m.trow = clampInt(m.trow, 0, len(m.board.Lists[m.tcol].Cards))
	}
	m.scroll()
}

// scroll keeps the focused (or target) column on screen.
func (m *Model) scroll() {
	c := m.col
	if m.gesture.State() == dnd.Dragging && !m.mouseDrag {
		c = m.tcol
	}
	visible := m.visibleColumns()
	if c < m.offset {
		m.offset = c
	}
	if c >= m.offset+visible {
		m.offset = c - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	dragging := m.gesture.State() == dnd.Dragging
	switch {
	case key.Matches(msg, k.Quit):
		m.gesture.Cancel()
		return m, tea.Quit

	case key.Matches(msg, k.Cancel):
		if m.gesture.Cancel() {
			m.status = "drag cancelled"
		}
		return m, nil

	case key.Matches(msg, k.Left), key.Matches(msg, k.Right), key.Matches(msg, k.Up), key.Matches(msg, k.Down):
		m.navigate(msg, dragging)
		return m, nil

	case key.Matches(msg, k.Grab):
		c, ok := m.focusedCard()
		if !ok || dragging {
			return m, nil
		}
		if err := m.gesture.Start(dnd.Item{Kind: dnd.CardItem, ID: c.ID, ListID: c.List}); err == nil {
			m.tcol, m.trow = m.col, m.row
			m.status = "moving " + c.Title
		}
		return m, nil

	case key.Matches(msg, k.GrabList):
		if m.board == nil || len(m.board.Lists) == 0 || dragging {
			return m, nil
		}
		if !m.boards.CanEditBoard(m.boardID) {
			m.status = "only owners and admins can reorder lists"
			return m, nil
		}
		l := m.board.Lists[m.col]
		if err := m.gesture.Start(dnd.Item{Kind: dnd.ListItem, ID: l.ID}); err == nil {
			m.tcol, m.trow = m.col, 0
			m.status = "moving list " + l.Title
		}
		return m, nil

	case key.Matches(msg, k.Drop):
		if !dragging {
			return m, nil
		}
		m.busy = true
		return m, m.drop(m.keyboardTarget(), dnd.Point{X: -1, Y: -1})

	case key.Matches(msg, k.Add):
		if m.board == nil || len(m.board.Lists) == 0 || dragging {
			return m, nil
		}
		m.adding = true
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, k.Delete):
		c, ok := m.focusedCard()
		if !ok || dragging {
			return m, nil
		}
		m.busy = true
		bs, ctx := m.boards, m.ctx
		return m, func() tea.Msg { return opMsg{"delete card", bs.DeleteCard(ctx, c.ID)} }

	case key.Matches(msg, k.Reload):
		m.busy = true
		return m, m.load()
	}
	return m, nil
}

func (m *Model) navigate(msg tea.KeyMsg, dragging bool) {
	if m.board == nil || len(m.board.Lists) == 0 {
		return
	}
	col, row := &m.col, &m.row
	extra := 0 // the end-of-list slot is a valid drop target
	if dragging {
		col, row = &m.tcol, &m.trow
		extra = 1
	}
	switch {
	case key.Matches(msg, m.keys.Left):
		*col--
	case key.Matches(msg, m.keys.Right):
		*col++
	case key.Matches(msg, m.keys.Up):
		*row--
	case key.Matches(msg, m.keys.Down):
		*row++
	}
	*col = clampInt(*col, 0, len(m.board.Lists)-1)
	*row = clampInt(*row, 0, len(m.board.Lists[*col].Cards)-1+extra)
	m.scroll()
}

func (m Model) addInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
		m.input.Blur()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.status = "title cannot be empty"
			return m, nil
		}
		m.adding = false
		m.input.Blur()
		m.busy = true
		listID := m.board.Lists[m.col].ID
		bs, ctx := m.boards, m.ctx
		return m, func() tea.Msg {
			_, err := bs.AddCard(ctx, model.CardInput{List: &listID, Title: &title})
			return opMsg{"add card", err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := dnd.Point{X: msg.X, Y: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.adding {
			return m, nil
		}
		li, ci, ok := m.cardAt(p)
		if !ok {
			return m, nil
		}
		m.col, m.row = li, ci
		c := m.board.Lists[li].Cards[ci]
		if err := m.gesture.Start(dnd.Item{Kind: dnd.CardItem, ID: c.ID, ListID: c.List}); err == nil {
			m.mouseDrag = true
			m.hover = p
			m.status = "moving " + c.Title
		}
		return m, nil

	case tea.MouseActionMotion:
		if m.mouseDrag {
			m.hover = p
		}
		return m, nil

	case tea.MouseActionRelease:
		if !m.mouseDrag {
			return m, nil
		}
		m.mouseDrag = false
		m.busy = true
		return m, m.drop(m.targetAt(p), p)
	}
	return m, nil
}

// drop hands the gesture to the store in the background.
func (m Model) drop(t dnd.Target, p dnd.Point) tea.Cmd {
	scene := dnd.Scene{Board: m.board, Containers: m.containers()}
	g, ctx := m.gesture, m.ctx
	return func() tea.Msg {
		out, err := g.Drop(ctx, scene, dnd.Drop{Target: t, Point: p})
		return movedMsg{out: out, err: err}
	}
}

// keyboardTarget is the card under the target cursor, or the list when
// the cursor sits on the end slot or a list is being dragged.
func (m Model) keyboardTarget() dnd.Target {
	if m.board == nil || len(m.board.Lists) == 0 {
		return dnd.Target{}
	}
	l := m.board.Lists[m.tcol]
	if it, _ := m.gesture.Item(); it.Kind == dnd.ListItem || m.trow >= len(l.Cards) {
		return dnd.Target{Kind: dnd.TargetList, ID: l.ID}
	}
	return dnd.Target{Kind: dnd.TargetCard, ID: l.Cards[m.trow].ID}
}

func (m Model) focusedCard() (model.Card, bool) {
	if m.board == nil || m.col >= len(m.board.Lists) {
		return model.Card{}, false
	}
	cards := m.board.Lists[m.col].Cards
	if m.row < 0 || m.row >= len(cards) {
		return model.Card{}, false
	}
	return cards[m.row], true
}

func (m Model) listByID(id int) int {
	if m.board == nil {
		return -1
	}
	return m.board.ListIndex(id)
}

// Err is the error that ended the view, if any.
func (m Model) Err() error { return m.err }
