package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Makepad-fr/board/internal/background"
	"github.com/Makepad-fr/board/internal/session"
	"github.com/Makepad-fr/board/internal/store"
	"github.com/Makepad-fr/board/internal/ui"
)

func (a *App) notif(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}
	if a.Session == nil || !a.Session.SignedIn() {
		return session.ErrNotSignedIn
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "ls":
		fs := a.flags("notif ls")
		filter := fs.String("filter", store.FilterAll, "all, unread or a notification type")
		if _, err := parse(fs, args); err != nil {
			return err
		}
		if _, err := a.Notifications.Fetch(ctx); err != nil {
			return err
		}
		items := a.Notifications.Filter(*filter)
		t := ui.Current()
		lines := []string{fmt.Sprintf("%s  %s %d", ui.C(t.Title, "Notifications"), ui.C(t.Pending, "unread"), a.Notifications.Unread()), ""}
		if len(items) == 0 {
			lines = append(lines, ui.C(t.Muted, "nothing here"))
		}
		for _, n := range items {
			mark := ui.C(t.Muted, " ")
			if !n.Read {
				mark = ui.C(t.Pending, t.SymBullet)
			}
			lines = append(lines, fmt.Sprintf("%s %s %s %s", ui.Dim(fmt.Sprintf("%4d", n.ID)), mark,
				ui.Truncate(n.Message, 70), ui.C(t.Muted, n.CreatedAt.Format("2006-01-02 15:04"))))
		}
		ui.Panel(a.Out, lines)
		return nil
	case "read":
		if err := a.Notifications.MarkAllRead(ctx); err != nil {
			return err
		}
		ui.OK(a.Out, "all notifications marked as read")
		return nil
	case "rm":
		id, err := oneID("notification", args)
		if err != nil {
			return err
		}
		if err := a.Notifications.Delete(ctx, id); err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("deleted notification #%d", id))
		return nil
	}
	return usage("notif: unknown action %q", sub)
}

func (a *App) bg(_ context.Context, args []string) error {
	if a.Backgrounds == nil {
		return errors.New("background cache is not available")
	}
	if len(args) == 0 {
		args = []string{"ls"}
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "ls":
		imgs, err := a.Backgrounds.List()
		if err != nil {
			return err
		}
		if len(imgs) == 0 {
			ui.Warn(a.Out, "no cached backgrounds")
			return nil
		}
		var lines []string
		for _, im := range imgs {
			lines = append(lines, fmt.Sprintf("%s %s %s", ui.Dim(im.ID[:8]), im.Name, ui.C(ui.Current().Muted, im.Source)))
		}
		ui.Panel(a.Out, lines)
		return nil
	case "add":
		fs := a.flags("bg add")
		name := fs.String("name", "", "display name")
		pos, err := parse(fs, args)
		if err != nil {
			return err
		}
		if len(pos) != 1 {
			return usage("usage: board bg add [-name n] <path>")
		}
		im, err := a.Backgrounds.Add(*name, pos[0])
		if err != nil {
			return err
		}
		ui.OK(a.Out, fmt.Sprintf("cached background %s (%s)", im.Name, im.ID[:8]))
		return nil
	case "rm":
		if len(args) != 1 {
			return usage("usage: board bg rm <id>")
		}
		id, err := a.backgroundID(args[0])
		if err != nil {
			return err
		}
		if err := a.Backgrounds.Remove(id); err != nil {
			return err
		}
		ui.OK(a.Out, "removed background "+id[:8])
		return nil
	}
	return usage("bg: unknown action %q", sub)
}

// backgroundID accepts a full id or the short prefix `bg ls` prints.
func (a *App) backgroundID(prefix string) (string, error) {
	imgs, err := a.Backgrounds.List()
	if err != nil {
		return "", err
	}
	match := ""
	for _, im := range imgs {
		if strings.HasPrefix(im.ID, prefix) {
			if match != "" {
				return "", usage("bg: id prefix %q is ambiguous", prefix)
			}
			match = im.ID
		}
	}
	if match == "" {
		return "", background.ErrNotFound
	}
	return match, nil
}

func (a *App) tui(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("usage: board tui <boardID>")
	}
	boardID, err := atoi("board", args[0])
	if err != nil {
		return err
	}
	if err := a.signedIn(ctx); err != nil {
		return err
	}
	if a.Interactive == nil {
		return errors.New("interactive mode is not available")
	}
	return a.Interactive(ctx, boardID)
}
