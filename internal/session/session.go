// Package session owns sign-in state. It is the only place that reacts to
// an expired or rejected token: stored credentials are wiped and the
// sign-out callback runs, whichever layer saw the 401.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/auth"
	"github.com/Makepad-fr/board/internal/model"
)

// ErrSignedOut wraps the 401 that ended the session.
var ErrSignedOut = errors.New("signed out")

// ErrNotSignedIn is returned when an operation needs stored credentials.
var ErrNotSignedIn = errors.New("not signed in")

// Accounts is the part of the API client the controller needs.
type Accounts interface {
	Login(ctx context.Context, username, password string) (api.LoginResponse, error)
	Signup(ctx context.Context, in api.SignupInput) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, in api.ProfileInput) (model.User, error)
}

// Credentials is where tokens live between runs.
type Credentials interface {
	Load() (*auth.Credentials, error)
	Save(auth.Credentials) error
	SetUser(model.User) error
	Clear() (auth.Source, error)
}

type Controller struct {
	accounts Accounts
	creds    Credentials
	log      log.FieldLogger

	mu          sync.Mutex
	onSignedOut func()
}

func New(accounts Accounts, creds Credentials, logger log.FieldLogger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{accounts: accounts, creds: creds, log: logger}
}

// OnSignedOut registers the sign-in callback run after a 401 clears the
// credentials. It replaces any earlier callback.
func (c *Controller) OnSignedOut(fn func()) {
	c.mu.Lock()
	c.onSignedOut = fn
	c.mu.Unlock()
}

// Handle routes every error from an API call. A 401 clears credentials,
// runs the callback and comes back as ErrSignedOut; anything else is
// returned unchanged.
func (c *Controller) Handle(err error) error {
	if err == nil || !errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	if errors.Is(err, ErrSignedOut) {
		return err
	}
	src, clearErr := c.creds.Clear()
	entry := c.log.WithError(err)
	if clearErr != nil {
		entry = entry.WithField("clear_error", clearErr.Error())
	}
	if src == auth.SourceEnv {
		entry = entry.WithField("token_source", string(src))
	}
	entry.Warn("session rejected by server, signing out")

	c.mu.Lock()
	fn := c.onSignedOut
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
	return fmt.Errorf("%w: %w", ErrSignedOut, err)
}

// Login exchanges a username and password for a token, stores it and
// caches the profile. remember picks the persistent store.
func (c *Controller) Login(ctx context.Context, username, password string, remember bool) (model.User, error) {
	resp, err := c.accounts.Login(ctx, username, password)
	if err != nil {
		return model.User{}, err
	}
	if resp.AccessToken == "" {
		return model.User{}, errors.New("login response carried no access token")
	}
	if err := c.creds.Save(auth.Credentials{
		Token:        resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Remember:     remember,
	}); err != nil {
		return model.User{}, fmt.Errorf("save credentials: %w", err)
	}
	u, err := c.accounts.Profile(ctx)
	if err != nil {
		return model.User{}, c.Handle(fmt.Errorf("fetch profile: %w", err))
	}
	if err := c.creds.SetUser(u); err != nil {
		c.log.WithError(err).Warn("could not cache user profile")
	}
	c.log.WithFields(log.Fields{"user_id": u.ID, "remember": remember}).Info("signed in")
	return u, nil
}

func (c *Controller) Signup(ctx context.Context, in api.SignupInput) error {
	return c.accounts.Signup(ctx, in)
}

// Logout tells the server and then forgets local credentials even if the
// server call fails.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.accounts.Logout(ctx); err != nil {
		c.log.WithError(err).Debug("server logout failed")
	}
	_, err := c.creds.Clear()
	return err
}

func (c *Controller) Profile(ctx context.Context) (model.User, error) {
	u, err := c.accounts.Profile(ctx)
	if err != nil {
		return model.User{}, c.Handle(err)
	}
	if err := c.creds.SetUser(u); err != nil {
		c.log.WithError(err).Debug("could not cache user profile")
	}
	return u, nil
}

func (c *Controller) UpdateProfile(ctx context.Context, in api.ProfileInput) (model.User, error) {
	u, err := c.accounts.UpdateProfile(ctx, in)
	if err != nil {
		return model.User{}, c.Handle(err)
	}
	if err := c.creds.SetUser(u); err != nil {
		c.log.WithError(err).Debug("could not cache user profile")
	}
	return u, nil
}

// CurrentUser returns the cached user blob.
func (c *Controller) CurrentUser() (model.User, error) {
	cr, err := c.creds.Load()
	if err != nil {
		return model.User{}, err
	}
	if cr == nil || cr.User == nil {
		return model.User{}, ErrNotSignedIn
	}
	return *cr.User, nil
}

// CurrentUserID returns 0 when nobody is signed in.
func (c *Controller) CurrentUserID() int {
	u, err := c.CurrentUser()
	if err != nil {
		return 0
	}
	return u.ID
}

// SignedIn reports whether a token is stored.
func (c *Controller) SignedIn() bool {
	cr, err := c.creds.Load()
	return err == nil && cr != nil && cr.Token != ""
}
