package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Makepad-fr/board/internal/model"
	"github.com/Makepad-fr/board/internal/ui"
)

func (a *App) boards(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usage("usage: board boards")
	}
	if err := a.signedIn(ctx); err != nil {
		return err
	}
	if err := a.Boards.FetchBoards(ctx); err != nil {
		return err
	}
	bs := a.Boards.Boards()
	t := ui.Current()
	lines := []string{ui.C(t.Title, "Boards") + "  " + ui.C(t.Accent, "Total") + " " + strconv.Itoa(len(bs)), ""}
	if len(bs) == 0 {
		lines = append(lines, ui.C(t.Muted, "no boards yet"), "",
			ui.C(t.Muted, "Tip: create one with `board board add \"Roadmap\"`"))
	}
	me := a.Boards.CurrentUser()
	for _, b := range bs {
		role := ""
		if m, ok := b.Membership(me); ok {
			role = string(m.Role)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			ui.Dim(fmt.Sprintf("%4d", b.ID)), ui.Truncate(b.Title, 60), ui.C(t.Muted, "("+role+")")))
	}
	ui.Panel(a.Out, lines)
	return nil
}

func (a *App) board(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("usage: board board <show|add|edit|rm|label> ...")
	}
	if err := a.signedIn(ctx); err != nil {
		return err
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "show":
		if len(args) != 1 {
			return usage("usage: board board show <id>")
		}
		id, err := atoi("board", args[0])
		if err != nil {
			return err
		}
		if err := a.Boards.Load(ctx, id); err != nil {
			return err
		}
		if _, err := a.Boards.FetchLabels(ctx, id); err != nil {
			return err
		}
		b := a.Boards.Board(id)
		if b == nil {
			return fmt.Errorf("board %d: %w", id, errNoAccess)
		}
		a.renderBoard(b)
		return nil

	case "label":
		return a.label(ctx, args)

	case "add":
		fs := a.flags("board add")
		var in model.BoardInput
		fs.StringVar(&in.Description, "desc", "", "description")
		fs.StringVar(&in.Color, "color", "", "color")
		pos, err := parse(fs, args)
		if err != nil {
			return err
		}
		in.Title = strings.TrimSpace(strings.Join(pos, " "))
		if in.Title == "" {
			return usage("usage: board board add [-desc d] [-color c] <title...>")
		}
		b, err := a.Boards.AddBoard(ctx, in)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("created board #%d %s", b.ID, b.Title))
		return nil

	case "edit":
		fs := a.flags("board edit")
		var in model.BoardInput
		fs.StringVar(&in.Title, "title", "", "new title")
		fs.StringVar(&in.Description, "desc", "", "new description")
		fs.StringVar(&in.Color, "color", "", "new color")
		pos, err := parse(fs, args)
		if err != nil {
			return err
		}
		if len(pos) != 1 || in == (model.BoardInput{}) {
			return usage("usage: board board edit [-title t] [-desc d] [-color c] <id>")
		}
		id, err := atoi("board", pos[0])
		if err != nil {
			return err
		}
		if err := a.Boards.FetchBoards(ctx); err != nil {
			return err
		}
		b, err := a.Boards.UpdateBoard(ctx, id, in)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("updated board #%d %s", b.ID, b.Title))
		return nil

	case "rm":
		if len(args) != 1 {
			return usage("usage: board board rm <id>")
		}
		id, err := atoi("board", args[0])
		if err != nil {
			return err
		}
		if err := a.Boards.FetchBoards(ctx); err != nil {
			return err
		}
		if err := a.Boards.DeleteBoard(ctx, id); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted board #%d", id))
		return nil
	}
	return usage("board: unknown action %q", sub)
}

func (a *App) list(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("usage: board list <add|rename|rm|mv> ...")
	}
	if err := a.signedIn(ctx); err != nil {
		return err
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "add":
		if len(args) < 2 {
			return usage("usage: board list add <boardID> <title...>")
		}
		boardID, err := atoi("board", args[0])
		if err != nil {
			return err
		}
		if err := a.Boards.Load(ctx, boardID); err != nil {
			return err
		}
		l, err := a.Boards.AddList(ctx, boardID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("created list #%d %s", l.ID, l.Title))
		return nil

	case "rename":
		if len(args) < 2 {
			return usage("usage: board list rename <listID> <title...>")
		}
		listID, err := atoi("list", args[0])
		if err != nil {
			return err
		}
		if _, err := a.Boards.EnsureList(ctx, listID); err != nil {
			return err
		}
		l, err := a.Boards.UpdateList(ctx, listID, model.ListInput{Title: strings.Join(args[1:], " ")})
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("renamed list #%d to %s", l.ID, l.Title))
		return nil

	case "rm":
		if len(args) != 1 {
			return usage("usage: board list rm <listID>")
		}
		listID, err := atoi("list", args[0])
		if err != nil {
			return err
		}
		if _, err := a.Boards.EnsureList(ctx, listID); err != nil {
			return err
		}
		if err := a.Boards.DeleteList(ctx, listID); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted list #%d", listID))
		return nil

	case "mv":
		if len(args) != 3 {
			return usage("usage: board list mv <boardID> <from> <to>")
		}
		n, err := ids("position", args)
		if err != nil {
			return err
		}
		if err := a.Boards.Load(ctx, n[0]); err != nil {
			return err
		}
		if err := a.Boards.MoveList(ctx, n[0], n[1]-1, n[2]-1); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("moved list %d to position %d", n[1], n[2]))
		return nil
	}
	return usage("list: unknown action %q", sub)
}

func (a *App) member(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("usage: board member <search|add|role> ...")
	}
	if err := a.signedIn(ctx); err != nil {
		return err
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "search":
		if len(args) < 2 {
			return usage("usage: board member search <boardID> <query>")
		}
		boardID, err := atoi("board", args[0])
		if err != nil {
			return err
		}
		users, err := a.Boards.SearchUsers(ctx, strings.Join(args[1:], " "), boardID)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			ui.Warn(a.Out, "no matching users")
			return nil
		}
		var lines []string
		for _, u := range users {
			lines = append(lines, fmt.Sprintf("%s %s %s", ui.Dim(fmt.Sprintf("%4d", u.ID)), u.Username, ui.C(ui.Current().Muted, u.DisplayName())))
		}
		ui.Panel(a.Out, lines)
		return nil

	case "add", "role":
		if len(args) < 2 || len(args) > 3 || (sub == "role" && len(args) != 3) {
			return usage("usage: board member %s <boardID> <userID> [owner|admin|member]", sub)
		}
		n, err := ids("id", args[:2])
		if err != nil {
			return err
		}
		role := model.RoleMember
		if len(args) == 3 {
			role = model.Role(strings.ToLower(args[2]))
		}
		if !role.Valid() {
			return usage("member: unknown role %q", args[2])
		}
		if err := a.Boards.FetchBoards(ctx); err != nil {
			return err
		}
		if sub == "add" {
			err = a.Boards.AddMember(ctx, n[0], n[1], role)
		} else {
			err = a.Boards.UpdateMemberRole(ctx, n[0], n[1], role)
		}
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("user %d is now %s of board %d", n[1], role, n[0]))
		return nil
	}
	return usage("member: unknown action %q", sub)
}

// renderBoard prints one panel per list.
func (a *App) renderBoard(b *model.Board) {
	t := ui.Current()
	fmt.Fprintf(a.Out, "%s %s\n", ui.C(t.Title, b.Title), ui.Dim(fmt.Sprintf("#%d", b.ID)))
	if b.Description != "" {
		fmt.Fprintln(a.Out, ui.C(t.Muted, b.Description))
	}
	if len(b.Lists) == 0 {
		fmt.Fprintln(a.Out, ui.C(t.Muted, "no lists yet"))
		return
	}
	for _, l := range b.Lists {
		lines := []string{fmt.Sprintf("%s %s  %s", ui.C(t.Accent, l.Title), ui.Dim(fmt.Sprintf("#%d", l.ID)), ui.C(t.Muted, strconv.Itoa(len(l.Cards))))}
		if len(l.Cards) == 0 {
			lines = append(lines, ui.C(t.Muted, "(empty)"))
		}
		for _, c := range l.Cards {
			lines = append(lines, cardLine(c, b.Labels))
		}
		ui.Panel(a.Out, lines)
	}
}

func cardLine(c model.Card, labels []model.Label) string {
	t := ui.Current()
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", ui.Dim(fmt.Sprintf("%4d", c.ID)), t.SymBullet, ui.Truncate(c.Title, 60))
	for _, id := range c.Labels {
		l := model.LabelByID(labels, id)
		b.WriteString(" " + ui.Label(l.Name, l.Color))
	}
	if done, total := c.Progress(); total > 0 {
		fmt.Fprintf(&b, " %s %d/%d", t.BoxChecked, done, total)
	}
	if c.DueDate != nil {
		b.WriteString(" " + ui.C(t.Pending, t.SymDue+" "+c.DueDate.String()))
	}
	return b.String()
}

// label manages a board's labels. New labels may name one of the preset
// keys to take its name and color.
func (a *App) label(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("usage: board board label <ls|add> ...")
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "ls":
		if len(args) != 1 {
			return usage("usage: board board label ls <boardID>")
		}
		id, err := atoi("board", args[0])
		if err != nil {
			return err
		}
		if err := a.Boards.Load(ctx, id); err != nil {
			return err
		}
		ls, err := a.Boards.FetchLabels(ctx, id)
		if err != nil {
			return err
		}
		t := ui.Current()
		lines := []string{ui.C(t.Title, "Labels") + "  " + ui.C(t.Accent, "Total") + " " + strconv.Itoa(len(ls))}
		for _, l := range ls {
			lines = append(lines, fmt.Sprintf("%s %s", ui.Dim(fmt.Sprintf("%4d", l.ID)), ui.Label(l.Name, l.Color)))
		}
		lines = append(lines, "", ui.C(t.Muted, "Presets"))
		for _, p := range model.PresetLabels() {
			lines = append(lines, fmt.Sprintf("%-16s %s", p.Key, ui.Label(p.Name, p.Color)))
		}
		ui.Panel(a.Out, lines)
		return nil

	case "add":
		fs := a.flags("board label add")
		color := fs.String("color", "", "color, defaults to the preset's or gray")
		pos, err := parse(fs, args)
		if err != nil {
			return err
		}
		if len(pos) < 2 {
			return usage("usage: board board label add [-color c] <boardID> <preset|name...>")
		}
		id, err := atoi("board", pos[0])
		if err != nil {
			return err
		}
		in := model.Label{Name: strings.Join(pos[1:], " "), Color: "gray"}
		if p, ok := model.PresetLabelByKey(in.Name); ok {
			in.Name, in.Color = p.Name, p.Color
		}
		if *color != "" {
			in.Color = *color
		}
		if err := a.Boards.Load(ctx, id); err != nil {
			return err
		}
		l, err := a.Boards.AddLabel(ctx, id, in)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("label %d %s added to board %d", l.ID, l.Name, id))
		return nil
	}
	return usage("label: unknown action %q", sub)
}
