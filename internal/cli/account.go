package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/model"
	"github.com/Makepad-fr/board/internal/session"
	"github.com/Makepad-fr/board/internal/ui"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	remember := fs.Bool("remember", false, "keep the session across reboots")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) > 1 {
		return usage("usage: board login [-remember] [username]")
	}
	username := ""
	if len(pos) == 1 {
		username = pos[0]
	} else if username, err = a.readLine("Username: "); err != nil {
		return err
	}
	if username == "" {
		return usage("login: username is required")
	}
	password, err := a.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	u, err := a.Session.Login(ctx, username, password, *remember)
	if err != nil {
		return err
	}
	ui.OK(a.Out, "signed in as "+u.DisplayName())
	return nil
}

func (a *App) signup(ctx context.Context, args []string) error {
	fs := a.flags("signup")
	in := api.SignupInput{}
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usage("usage: board signup [-email e] [-first f] [-last l] <username>")
	}
	in.Username = pos[0]
	if in.Password, err = a.ReadPassword("Password: "); err != nil {
		return err
	}
	if strings.TrimSpace(in.Password) == "" {
		return usage("signup: password is required")
	}
	if err := a.Session.Signup(ctx, in); err != nil {
		return err
	}
	ui.OK(a.Out, "account created, run `board login "+in.Username+"` to sign in")
	return nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usage("usage: board logout")
	}
	if !a.Session.SignedIn() {
		ui.Warn(a.Out, "not signed in")
		return nil
	}
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	ui.OK(a.Out, "signed out")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return usage("usage: board whoami")
	}
	if !a.Session.SignedIn() {
		return session.ErrNotSignedIn
	}
	u, err := a.Session.Profile(ctx)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) profile(ctx context.Context, args []string) error {
	if !a.Session.SignedIn() {
		return session.ErrNotSignedIn
	}
	if len(args) == 0 {
		return a.whoami(ctx, nil)
	}
	if args[0] != "set" || len(args) == 1 {
		return usage("usage: board profile [set key=value...]")
	}
	var in api.ProfileInput
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return usage("profile: expected key=value, got %q", kv)
		}
		v = strings.TrimSpace(v)
		switch k {
		case "email":
			in.Email = &v
		case "first_name", "first":
			in.FirstName = &v
		case "last_name", "last":
			in.LastName = &v
		case "avatar":
			in.Avatar = &v
		default:
			return usage("profile: unknown key %q", k)
		}
	}
	u, err := a.Session.UpdateProfile(ctx, in)
	if err != nil {
		return err
	}
	ui.OK(a.Out, "profile updated")
	a.printUser(u)
	return nil
}

func (a *App) printUser(u model.User) {
	t := ui.Current()
	lines := []string{
		ui.C(t.Title, u.DisplayName()) + "  " + ui.Dim(fmt.Sprintf("#%d", u.ID)),
		ui.C(t.Muted, "username ") + u.Username,
	}
	if u.Email != "" {
		lines = append(lines, ui.C(t.Muted, "email    ")+u.Email)
	}
	ui.Panel(a.Out, lines)
}
