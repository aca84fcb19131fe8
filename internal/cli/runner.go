// Package cli is the command-line front end: one subcommand per board,
// list, card or account operation, with exit codes 0 ok, 1 error,
// 2 usage or sign-in required.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/background"
	"github.com/Makepad-fr/board/internal/session"
	"github.com/Makepad-fr/board/internal/store"
	"github.com/Makepad-fr/board/internal/ui"
)

// App holds everything the subcommands need. Out and Err default to the
// process streams.
type App struct {
	Out, Err io.Writer
	In       io.Reader

	Session       *session.Controller
	Boards        *store.BoardStore
	Details       *store.Details
	Notifications *store.Notifications
	Backgrounds   *background.Cache
	Log           log.FieldLogger

	// ReadPassword prompts without echo. Defaults to the terminal.
	ReadPassword func(prompt string) (string, error)
	// Interactive opens the board view for `tui`.
	Interactive func(ctx context.Context, boardID int) error

	lines *bufio.Reader
}

var (
	errNoAccess   = errors.New("you are not a member of this board")
	errNotOnBoard = errors.New("cards move between lists of one board")
)

type usageError string

func (e usageError) Error() string { return string(e) }

func usage(format string, a ...any) error { return usageError(fmt.Sprintf(format, a...)) }

type command func(ctx context.Context, args []string) error

// Run dispatches one subcommand and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	a.defaults()
	if len(args) == 0 {
		a.PrintHelp()
		return 2
	}
	cmd, rest := args[0], args[1:]

	cmds := map[string]command{
		"login":   a.login,
		"signup":  a.signup,
		"logout":  a.logout,
		"whoami":  a.whoami,
		"profile": a.profile,
		"boards":  a.boards,
		"board":   a.board,
		"list":    a.list,
		"card":    a.card,
		"comment": a.comment,
		"check":   a.check,
		"attach":  a.attach,
		"member":  a.member,
		"notif":   a.notif,
		"bg":      a.bg,
		"tui":     a.tui,
	}
	switch cmd {
	case "help", "-h", "--help":
		a.PrintHelp()
		return 0
	}
	fn, ok := cmds[cmd]
	if !ok {
		ui.Fail(a.Err, "unknown subcommand: "+cmd)
		fmt.Fprintln(a.Err)
		a.PrintHelp()
		return 2
	}
	return a.exit(cmd, fn(ctx, rest))
}

func (a *App) defaults() {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Log == nil {
		a.Log = log.StandardLogger()
	}
	if a.ReadPassword == nil {
		a.ReadPassword = a.terminalPassword
	}
	if a.lines == nil {
		a.lines = bufio.NewReader(a.In)
	}
}

// exit maps an error to an exit code and prints it.
func (a *App) exit(cmd string, err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	switch {
	case errors.As(err, &ue):
		ui.Fail(a.Err, string(ue))
		ui.Hint(a.Err, "Hint: run `board help` for usage")
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, session.ErrSignedOut), errors.Is(err, session.ErrNotSignedIn),
		errors.Is(err, api.ErrUnauthorized):
		ui.Fail(a.Err, "you are not signed in")
		ui.Hint(a.Err, "Hint: run `board login` to sign in")
		return 2
	case errors.Is(err, store.ErrForbidden):
		ui.Fail(a.Err, cmd+": only board owners and admins can do that")
		return 1
	case errors.Is(err, store.ErrNotFound), errors.Is(err, api.ErrNotFound):
		ui.Fail(a.Err, cmd+": not found")
		return 1
	}
	a.Log.WithError(err).WithField("command", cmd).Debug("command failed")
	ui.Fail(a.Err, cmd+": "+message(err))
	return 1
}

// message prefers what the server said over the request details.
func message(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) == 0 {
			if apiErr.Message != "" {
				return apiErr.Message
			}
			return apiErr.Error()
		}
		keys := make([]string, 0, len(apiErr.Fields))
		for k := range apiErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(apiErr.Fields[k], " "))
		}
		return strings.Join(parts, "; ")
	}
	if errors.Is(err, api.ErrTransport) {
		return "could not reach the server: " + err.Error()
	}
	return err.Error()
}

// signedIn resolves the current user for access checks.
func (a *App) signedIn(ctx context.Context) error {
	if a.Session == nil || !a.Session.SignedIn() {
		return session.ErrNotSignedIn
	}
	id := a.Session.CurrentUserID()
	if id == 0 {
		u, err := a.Session.Profile(ctx)
		if err != nil {
			return err
		}
		id = u.ID
	}
	a.Boards.SetCurrentUser(id)
	return nil
}

// flags builds a flag set that reports to a.Err.
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// parse accepts flags anywhere among the positional arguments.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, nil
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

func atoi(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, usage("%s: not a valid id: %s", what, s)
	}
	return n, nil
}

func ids(what string, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := atoi(what, s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func splitIDs(what, s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}
	return ids(what, strings.Split(s, ","))
}

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.Err, prompt)
	s, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func (a *App) terminalPassword(prompt string) (string, error) {
	f, ok := a.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.readLine(prompt)
	}
	fmt.Fprint(a.Err, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.Err)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func (a *App) PrintHelp() {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	fmt.Fprint(a.Out, `board - a terminal client for Kanban boards

Usage:
  board [-api URL] [-theme classic|neon|mono] [-v] <subcommand> [args]

Account:
  login [-remember] [username]        Sign in (password is prompted)
  signup [-email e] [-first f] [-last l] <username>
  logout                              Forget the stored session
  whoami                              Show the signed-in user
  profile [set key=value...]          Show or edit email, first_name, last_name, avatar

Boards:
  boards                              List your boards
  board show <id>                     Lists and cards of a board
  board add [-desc d] [-color c] <title...>
  board edit [-title t] [-desc d] [-color c] <id>
  board rm <id>                       Delete (owner only)
  board label ls <boardID>            Board labels and the preset catalog
  board label add [-color c] <boardID> <preset|name...>
  list add <boardID> <title...>
  list rename <listID> <title...>
  list rm <listID>
  list mv <boardID> <from> <to>       Reorder lists (1-based positions)
  member search <boardID> <query>
  member add <boardID> <userID> [role]
  member role <boardID> <userID> <owner|admin|member>

Cards:
  card add [-desc d] [-due YYYY-MM-DD] <listID> <title...>
  card edit [-title t] [-desc d] [-due d] [-labels 1,2] [-assign 3,4] <cardID>
  card mv <cardID> <listID> [position]
  card show <cardID>
  card rm <cardID>
  comment ls|add|rm <cardID> [text...|commentID]
  check ls|add|toggle|rm <cardID> [text...|itemID]
  attach ls|add|rm <cardID> [path|attachmentID]

Other:
  notif ls [-filter all|unread|<type>] | notif read | notif rm <id>
  bg ls | bg add [-name n] <path> | bg rm <id>
  tui <boardID>                       Interactive board (drag cards with the mouse)
`)
}
