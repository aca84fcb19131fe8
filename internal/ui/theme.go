package ui

import "strings"

// Theme bundles palette, symbols and box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymBullet, SymDue                    string
	// Lipgloss colors for the interactive board.
	ColumnBorder, FocusBorder, DragBorder string
}

var current = themeFor("classic")

// Themes lists the accepted theme names.
var Themes = []string{"classic", "neon", "mono"}

// SetTheme switches the active theme; unknown names fall back to classic.
func SetTheme(name string) {
	current = themeFor(name)
	disableColor = current.Name == "mono"
}

func themeFor(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		return Theme{
			Name:  "neon",
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymDone: "✔", SymBullet: "•", SymDue: "◷",
			ColumnBorder: "13", FocusBorder: "14", DragBorder: "11",
		}
	case "mono":
		return Theme{
			Name:         "mono",
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "x", SymBullet: "-", SymDue: "@",
			ColumnBorder: "7", FocusBorder: "15", DragBorder: "15",
		}
	default:
		return Theme{
			Name:  "classic",
			Title: bold, Muted: fgGray, Accent: fgBlue,
			Success: fgGreen, Error: fgRed, Pending: fgYellow,
			BoxUnchecked: "☐", BoxChecked: "☑",
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
			SymDone: "✔", SymBullet: "•", SymDue: "⏰",
			ColumnBorder: "8", FocusBorder: "12", DragBorder: "214",
		}
	}
}

// Current exposes the active theme to renderers.
func Current() Theme { return current }

// Dim is the faint style used for ids and secondary text.
func Dim(s string) string { return C(dim, s) }

// Label colors a label name by its backend color name.
func Label(name, color string) string {
	code := fgGray
	switch color {
	case "red", "pink":
		code = fgRed
	case "orange", "yellow":
		code = fgYellow
	case "green":
		code = fgGreen
	case "blue", "indigo", "purple":
		code = fgBlue
	case "cyan":
		code = fgCyan
	}
	return C(code, "["+name+"]")
}
