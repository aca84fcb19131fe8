package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Makepad-fr/board/internal/model"
	"github.com/Makepad-fr/board/internal/ui"
)

func (a *App) card(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("usage: board card <add|edit|mv|show|rm> ...")
	}
	if err := a.signedIn(ctx); err != nil {
		return err
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "add":
		fs := a.flags("card add")
		desc := fs.String("desc", "", "description")
		due := fs.String("due", "", "due date, YYYY-MM-DD")
		pos, err := parse(fs, args)
		if err != nil {
			return err
		}
		if len(pos) < 2 {
			return usage("usage: board card add [-desc d] [-due YYYY-MM-DD] <listID> <title...>")
		}
		listID, err := atoi("list", pos[0])
		if err != nil {
			return err
		}
		title := strings.TrimSpace(strings.Join(pos[1:], " "))
		in := model.CardInput{List: &listID, Title: &title}
		if *desc != "" {
			in.Description = desc
		}
		if in.DueDate, err = dueDate(*due); err != nil {
			return err
		}
		if _, err := a.Boards.EnsureList(ctx, listID); err != nil {
			return err
		}
		c, err := a.Boards.AddCard(ctx, in)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("created card #%d %s", c.ID, c.Title))
		return nil

	case "edit":
		fs := a.flags("card edit")
		var title, desc, due, labels, assign optString
		fs.Var(&title, "title", "new title")
		fs.Var(&desc, "desc", "new description")
		fs.Var(&due, "due", "due date, YYYY-MM-DD")
		fs.Var(&labels, "labels", "comma separated label ids")
		fs.Var(&assign, "assign", "comma separated user ids")
		pos, err := parse(fs, args)
		if err != nil {
			return err
		}
		if len(pos) != 1 {
			return usage("usage: board card edit [-title t] [-desc d] [-due d] [-labels 1,2] [-assign 3,4] <cardID>")
		}
		cardID, err := atoi("card", pos[0])
		if err != nil {
			return err
		}
		var in model.CardInput
		in.Title, in.Description = title.ptr(), desc.ptr()
		if due.set {
			if in.DueDate, err = dueDate(due.v); err != nil {
				return err
			}
		}
		if labels.set {
			if in.Labels, err = splitIDs("label", labels.v); err != nil {
				return err
			}
		}
		if assign.set {
			if in.Assignees, err = splitIDs("user", assign.v); err != nil {
				return err
			}
		}
		if _, err := a.Boards.EnsureCard(ctx, cardID); err != nil {
			return err
		}
		c, err := a.Boards.UpdateCard(ctx, cardID, in)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("updated card #%d %s", c.ID, c.Title))
		return nil

	case "mv":
		if len(args) < 2 || len(args) > 3 {
			return usage("usage: board card mv <cardID> <listID> [position]")
		}
		n, err := ids("id", args)
		if err != nil {
			return err
		}
		cardID, dstID := n[0], n[1]
		boardID, err := a.Boards.EnsureCard(ctx, cardID)
		if err != nil {
			return err
		}
		b := a.Boards.Board(boardID)
		if b == nil {
			return errNoAccess
		}
		src, _ := b.FindCard(cardID)
		dst := b.FindList(dstID)
		if src == nil || dst == nil {
			return fmt.Errorf("list %d is not on board %q: %w", dstID, b.Title, errNotOnBoard)
		}
		index := len(dst.Cards)
		if len(n) == 3 {
			index = n[2] - 1
		}
		if err := a.Boards.MoveCard(ctx, cardID, src.ID, dst.ID, index); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("moved card #%d to %s", cardID, dst.Title))
		return nil

	case "show":
		if len(args) != 1 {
			return usage("usage: board card show <cardID>")
		}
		cardID, err := atoi("card", args[0])
		if err != nil {
			return err
		}
		return a.showCard(ctx, cardID)

	case "rm":
		if len(args) != 1 {
			return usage("usage: board card rm <cardID>")
		}
		cardID, err := atoi("card", args[0])
		if err != nil {
			return err
		}
		if _, err := a.Boards.EnsureCard(ctx, cardID); err != nil {
			return err
		}
		if err := a.Boards.DeleteCard(ctx, cardID); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted card #%d", cardID))
		return nil
	}
	return usage("card: unknown action %q", sub)
}

func (a *App) showCard(ctx context.Context, cardID int) error {
	boardID, err := a.Boards.EnsureCard(ctx, cardID)
	if err != nil {
		return err
	}
	c, ok := a.Boards.Card(cardID)
	if !ok {
		return errNoAccess
	}
	if _, err := a.Boards.FetchLabels(ctx, boardID); err != nil {
		return err
	}
	comments, err := a.Details.FetchComments(ctx, cardID)
	if err != nil {
		return err
	}
	items, err := a.Details.FetchChecklist(ctx, cardID)
	if err != nil {
		return err
	}
	atts, err := a.Details.FetchAttachments(ctx, cardID)
	if err != nil {
		return err
	}

	t := ui.Current()
	b := a.Boards.Board(boardID)
	var labels []model.Label
	listTitle := ""
	if b != nil {
		labels = b.Labels
		if l := b.FindList(c.List); l != nil {
			listTitle = l.Title
		}
	}
	lines := []string{
		ui.C(t.Title, c.Title) + "  " + ui.Dim(fmt.Sprintf("#%d", c.ID)),
		ui.C(t.Muted, "in ") + listTitle,
	}
	if c.Description != "" {
		lines = append(lines, "", c.Description)
	}
	if c.DueDate != nil {
		due := t.SymDue + " due " + c.DueDate.String()
		color := t.Pending
		if c.DueDate.Overdue(time.Now()) {
			color, due = t.Error, due+" (overdue)"
		}
		lines = append(lines, ui.C(color, due))
	}
	if len(c.Labels) > 0 {
		var ls []string
		for _, id := range c.Labels {
			l := model.LabelByID(labels, id)
			ls = append(ls, ui.Label(l.Name, l.Color))
		}
		lines = append(lines, strings.Join(ls, " "))
	}
	if len(items) > 0 {
		done := 0
		for _, it := range items {
			if it.Completed {
				done++
			}
		}
		lines = append(lines, "", ui.C(t.Accent, "Checklist")+" "+ui.C(t.Muted, ui.ProgressBar(done, len(items), 20)))
		lines = append(lines, checklistLines(items)...)
	}
	if len(comments) > 0 {
		lines = append(lines, "", ui.C(t.Accent, fmt.Sprintf("Comments (%d)", len(comments))))
		for _, cm := range comments {
			lines = append(lines, fmt.Sprintf("%s %s: %s", ui.Dim(fmt.Sprintf("%4d", cm.ID)), cm.Author.DisplayName(), ui.Truncate(cm.Text, 70)))
		}
	}
	if len(atts) > 0 {
		lines = append(lines, "", ui.C(t.Accent, fmt.Sprintf("Attachments (%d)", len(atts))))
		lines = append(lines, attachmentLines(atts)...)
	}
	ui.Panel(a.Out, lines)
	return nil
}

func checklistLines(items []model.ChecklistItem) []string {
	t := ui.Current()
	out := make([]string, 0, len(items))
	for _, it := range items {
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(fmt.Sprintf("%4d", it.ID)), ui.C(color, box), it.Text))
	}
	return out
}

func attachmentLines(atts []model.Attachment) []string {
	out := make([]string, 0, len(atts))
	for _, at := range atts {
		name := at.Name
		if name == "" {
			name = filepath.Base(at.File)
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(fmt.Sprintf("%4d", at.ID)), name, ui.C(ui.Current().Muted, at.UploadedAt.Format("2006-01-02"))))
	}
	return out
}

func (a *App) comment(ctx context.Context, args []string) error {
	sub, cardID, rest, err := a.cardArgs(ctx, "comment", args)
	if err != nil {
		return err
	}
	switch sub {
	case "ls":
		cs, err := a.Details.FetchComments(ctx, cardID)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			ui.Warn(a.Out, "no comments")
			return nil
		}
		var lines []string
		for _, c := range cs {
			lines = append(lines, fmt.Sprintf("%s %s %s", ui.Dim(fmt.Sprintf("%4d", c.ID)),
				ui.C(ui.Current().Accent, c.Author.DisplayName()), ui.C(ui.Current().Muted, c.CreatedAt.Format("2006-01-02 15:04"))))
			lines = append(lines, "     "+c.Text)
		}
		ui.Panel(a.Out, lines)
		return nil
	case "add":
		text := strings.TrimSpace(strings.Join(rest, " "))
		if text == "" {
			return usage("usage: board comment add <cardID> <text...>")
		}
		c, err := a.Details.AddComment(ctx, cardID, text)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("added comment #%d", c.ID))
		return nil
	case "rm":
		id, err := oneID("comment", rest)
		if err != nil {
			return err
		}
		if err := a.Details.DeleteComment(ctx, cardID, id); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted comment #%d", id))
		return nil
	}
	return usage("comment: unknown action %q", sub)
}

func (a *App) check(ctx context.Context, args []string) error {
	sub, cardID, rest, err := a.cardArgs(ctx, "check", args)
	if err != nil {
		return err
	}
	items, err := a.Details.FetchChecklist(ctx, cardID)
	if err != nil {
		return err
	}
	switch sub {
	case "ls":
		if len(items) == 0 {
			ui.Warn(a.Out, "checklist is empty")
			return nil
		}
		done := 0
		for _, it := range items {
			if it.Completed {
				done++
			}
		}
		lines := append([]string{ui.C(ui.Current().Muted, ui.ProgressBar(done, len(items), 20))}, checklistLines(items)...)
		ui.Panel(a.Out, lines)
		return nil
	case "add":
		text := strings.TrimSpace(strings.Join(rest, " "))
		if text == "" {
			return usage("usage: board check add <cardID> <text...>")
		}
		checklistID := 0
		if cls := a.Details.Checklists(cardID); len(cls) > 0 {
			checklistID = cls[0].ID
		}
		it, err := a.Details.AddChecklistItem(ctx, cardID, checklistID, text)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("added item #%d", it.ID))
		return nil
	case "toggle":
		id, err := oneID("item", rest)
		if err != nil {
			return err
		}
		it, err := a.Details.ToggleChecklistItem(ctx, cardID, id)
		if err != nil {
			return err
		}
		state := "open"
		if it.Completed {
			state = "done"
		}
		ui.OK(a.Out, fmt.Sprintf("item #%d is %s", it.ID, state))
		return nil
	case "rm":
		id, err := oneID("item", rest)
		if err != nil {
			return err
		}
		if err := a.Details.DeleteChecklistItem(ctx, cardID, id); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted item #%d", id))
		return nil
	}
	return usage("check: unknown action %q", sub)
}

func (a *App) attach(ctx context.Context, args []string) error {
	sub, cardID, rest, err := a.cardArgs(ctx, "attach", args)
	if err != nil {
		return err
	}
	switch sub {
	case "ls":
		as, err := a.Details.FetchAttachments(ctx, cardID)
		if err != nil {
			return err
		}
		if len(as) == 0 {
			ui.Warn(a.Out, "no attachments")
			return nil
		}
		ui.Panel(a.Out, attachmentLines(as))
		return nil
	case "add":
		if len(rest) != 1 {
			return usage("usage: board attach add <cardID> <path>")
		}
		f, err := os.Open(rest[0])
		if err != nil {
			return fmt.Errorf("open attachment: %w", err)
		}
		defer f.Close()
		at, err := a.Details.UploadAttachment(ctx, cardID, filepath.Base(rest[0]), f)
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("uploaded attachment #%d", at.ID))
		return nil
	case "rm":
		id, err := oneID("attachment", rest)
		if err != nil {
			return err
		}
		if err := a.Details.DeleteAttachment(ctx, cardID, id); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted attachment #%d", id))
		return nil
	}
	return usage("attach: unknown action %q", sub)
}

// cardArgs splits "<action> <cardID> rest..." and checks the card is
// reachable.
func (a *App) cardArgs(ctx context.Context, cmd string, args []string) (string, int, []string, error) {
	if len(args) < 2 {
		return "", 0, nil, usage("usage: board %s <action> <cardID> ...", cmd)
	}
	if err := a.signedIn(ctx); err != nil {
		return "", 0, nil, err
	}
	cardID, err := atoi("card", args[1])
	if err != nil {
		return "", 0, nil, err
	}
	if _, err := a.Boards.EnsureCard(ctx, cardID); err != nil {
		return "", 0, nil, err
	}
	return args[0], cardID, args[2:], nil
}

func oneID(what string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, usage("expected one %s id", what)
	}
	return atoi(what, args[0])
}

func dueDate(s string) (*model.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, usage("%v", err)
	}
	return &d, nil
}

// optString is a flag that remembers whether it was given, so an explicit
// empty value can clear a field.
type optString struct {
	v   string
	set bool
}

func (o *optString) String() string { return o.v }

func (o *optString) Set(s string) error {
	o.v, o.set = s, true
	return nil
}

func (o *optString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}
