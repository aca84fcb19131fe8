package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/board/internal/alert"
	"github.com/Makepad-fr/board/internal/dnd"
	"github.com/Makepad-fr/board/internal/model"
	"github.com/Makepad-fr/board/internal/ui"
)

// Screen geometry. Every column is colOuter cells wide; the board starts
// on row boardTop. Inside a column: border, title, rule, then one row per
// card and a final drop slot.
const (
	colInner  = 24
	colOuter  = colInner + 4 // padding and border
	colGap    = 1
	boardTop  = 2
	cardsTop  = boardTop + 3
	minHeight = 6
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	grabbedStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
	targetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	alertColors = map[alert.Kind]lipgloss.Color{
		alert.Success: "42",
		alert.Error:   "9",
		alert.Warning: "214",
		alert.Info:    "12",
	}
)

func (m Model) visibleColumns() int {
	n := (m.width + colGap) / (colOuter + colGap)
	if n < 1 {
		return 1
	}
	return n
}

func (m Model) columnX(i int) int { return (i - m.offset) * (colOuter + colGap) }

func (m Model) columnHeight() int {
	h := m.height - boardTop - 4
	if m.board != nil {
		for _, l := range m.board.Lists {
			if need := len(l.Cards) + 5; need > h {
				h = need
			}
		}
	}
	if h < minHeight {
		h = minHeight
	}
	return h
}

// containers are the on-screen column rectangles, for the geometry rule.
func (m Model) containers() []dnd.Container {
	if m.board == nil {
		return nil
	}
	var out []dnd.Container
	last := m.offset + m.visibleColumns()
	for i := m.offset; i < len(m.board.Lists) && i < last; i++ {
		out = append(out, dnd.Container{
			ListID: m.board.Lists[i].ID,
			Bounds: dnd.Rect{X: m.columnX(i), Y: boardTop, W: colOuter, H: m.columnHeight()},
		})
	}
	return out
}

func (m Model) columnAt(p dnd.Point) int {
	if m.board == nil {
		return -1
	}
	for i, c := range m.containers() {
		if c.Bounds.Contains(p) {
			return m.offset + i
		}
	}
	return -1
}

// cardAt hit-tests a card row.
func (m Model) cardAt(p dnd.Point) (li, ci int, ok bool) {
	li = m.columnAt(p)
	if li < 0 {
		return 0, 0, false
	}
	x := m.columnX(li)
	ci = p.Y - cardsTop
	if p.X <= x || p.X >= x+colOuter-1 || ci < 0 || ci >= len(m.board.Lists[li].Cards) {
		return 0, 0, false
	}
	return li, ci, true
}

// targetAt is what the pointer is over: a card, a column title, or
// nothing, in which case the drop point decides.
func (m Model) targetAt(p dnd.Point) dnd.Target {
	if li, ci, ok := m.cardAt(p); ok {
		return dnd.Target{Kind: dnd.TargetCard, ID: m.board.Lists[li].Cards[ci].ID}
	}
	if li := m.columnAt(p); li >= 0 && p.Y == boardTop+1 {
		return dnd.Target{Kind: dnd.TargetList, ID: m.board.Lists[li].ID}
	}
	return dnd.Target{}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.board == nil {
		if m.busy {
			b.WriteString(m.spin.View() + " loading board...")
		} else {
			b.WriteString(mutedStyle.Render("board not available"))
		}
		b.WriteString("\n")
		return b.String()
	}
	if len(m.board.Lists) == 0 {
		b.WriteString(mutedStyle.Render("no lists yet; add one with `board list add`"))
	} else {
		b.WriteString(m.columns())
	}
	b.WriteString("\n")

	for _, a := range m.alerts.Active() {
		b.WriteString(lipgloss.NewStyle().Foreground(alertColors[a.Kind]).Render("● "+a.Message) + "\n")
	}
	if m.adding {
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add card to " + m.board.Lists[m.col].Title
		b.WriteString(box.Render(title+"\n"+m.input.View()) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) header() string {
	title := "Board"
	if m.board != nil {
		title = m.board.Title
	}
	parts := []string{titleStyle.Render(title)}
	if m.board != nil && !m.boards.CanEditBoard(m.boardID) {
		parts = append(parts, mutedStyle.Render("(member)"))
	}
	if m.busy || m.gesture.State() == dnd.Reconciling {
		parts = append(parts, m.spin.View()+" saving")
	}
	if m.status != "" {
		parts = append(parts, mutedStyle.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

func (m Model) columns() string {
	t := ui.Current()
	item, dragging := m.gesture.Item()
	keyboardDrag := dragging && !m.mouseDrag && m.gesture.State() == dnd.Dragging
	hoverCol := -1
	if m.mouseDrag {
		hoverCol = m.columnAt(m.hover)
	}

	var cols []string
	last := m.offset + m.visibleColumns()
	for i := m.offset; i < len(m.board.Lists) && i < last; i++ {
		l := m.board.Lists[i]
		border := t.ColumnBorder
		switch {
		case keyboardDrag && i == m.tcol, i == hoverCol:
			border = t.DragBorder
		case !dragging && i == m.col:
			border = t.FocusBorder
		}
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1).
			Width(colInner + 2).
			Height(m.columnHeight() - 2)

		lines := []string{m.columnTitle(l, item, dragging), mutedStyle.Render(strings.Repeat("─", colInner))}
		for j, c := range l.Cards {
			lines = append(lines, m.cardLine(i, j, c, item, dragging, keyboardDrag))
		}
		slot := ""
		if keyboardDrag && i == m.tcol && m.trow >= len(l.Cards) && item.Kind == dnd.CardItem {
			slot = targetStyle.Render("+ drop here")
		}
		lines = append(lines, slot)
		cols = append(cols, style.Render(strings.Join(lines, "\n")))
		if i < len(m.board.Lists)-1 && i < last-1 {
			cols = append(cols, strings.Repeat(" ", colGap))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) columnTitle(l model.List, item dnd.Item, dragging bool) string {
	title := ui.Truncate(l.Title, colInner-5)
	count := fmt.Sprintf(" %d", len(l.Cards))
	s := titleStyle.Render(title) + mutedStyle.Render(count)
	if dragging && item.Kind == dnd.ListItem && item.ID == l.ID {
		return grabbedStyle.Render(title + count)
	}
	return s
}

func (m Model) cardLine(i, j int, c model.Card, item dnd.Item, dragging, keyboardDrag bool) string {
	t := ui.Current()
	text := ui.Truncate(c.Title, colInner-4)
	if done, total := c.Progress(); total > 0 {
		text = ui.Truncate(fmt.Sprintf("%s %d/%d", c.Title, done, total), colInner-4)
	}
	line := t.SymBullet + " " + text
	switch {
	case dragging && item.Kind == dnd.CardItem && item.ID == c.ID:
		return grabbedStyle.Render(line)
	case keyboardDrag && i == m.tcol && j == m.trow && item.Kind == dnd.CardItem:
		return targetStyle.Render("▸ " + text)
	case !dragging && i == m.col && j == m.row:
		return selectedStyle.Render(line)
	}
	if c.DueDate != nil {
		due := c.DueDate.Format("01/02")
		if c.DueDate.Overdue(time.Now()) {
			return line + " " + errorStyle.Render(due)
		}
		return line + " " + mutedStyle.Render(due)
	}
	return line
}
