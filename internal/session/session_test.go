package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Makepad-fr/board/internal/api"
	"github.com/Makepad-fr/board/internal/auth"
	"github.com/Makepad-fr/board/internal/fakeapi"
)

type fixture struct {
	srv   *fakeapi.Server
	creds *auth.Manager
	ctl   *Controller
	hook  *test.Hook
}

func setup(t *testing.T) *fixture {
	t.Helper()
	t.Setenv(auth.EnvToken, "")
	srv := fakeapi.New()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	creds := auth.NewManager(t.TempDir(), t.TempDir())
	logger, hook := test.NewNullLogger()
	client, err := api.New(ts.URL+"/api/", creds, api.WithLogger(logger))
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return &fixture{srv: srv, creds: creds, ctl: New(client, creds, logger), hook: hook}
}

func TestLoginStoresCredentialsAndUser(t *testing.T) {
	f := setup(t)
	ana := f.srv.AddUser("ana", "pw")

	u, err := f.ctl.Login(context.Background(), "ana", "pw", false)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != ana.ID {
		t.Fatalf("expected user %d, got %d", ana.ID, u.ID)
	}
	if !f.ctl.SignedIn() || f.ctl.CurrentUserID() != ana.ID {
		t.Fatalf("expected signed in as %d, got %d", ana.ID, f.ctl.CurrentUserID())
	}
	c, err := f.creds.Load()
	if err != nil || c == nil {
		t.Fatalf("Load: %v %v", c, err)
	}
	if c.Source != auth.SourceSession {
		t.Fatalf("expected session store, got %s", c.Source)
	}
	if c.ExpiresAt == nil {
		t.Fatal("expected expiry from token")
	}
}

func TestLoginRememberUsesPersistentStore(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("ana", "pw")
	if _, err := f.ctl.Login(context.Background(), "ana", "pw", true); err != nil {
		t.Fatalf("Login: %v", err)
	}
	c, _ := f.creds.Load()
	if c == nil || c.Source != auth.SourcePersistent {
		t.Fatalf("expected persistent credentials, got %+v", c)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("ana", "pw")
	_, err := f.ctl.Login(context.Background(), "ana", "nope", false)
	if !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid username or password." {
		t.Fatalf("expected server message verbatim, got %v", err)
	}
	if f.ctl.SignedIn() {
		t.Fatal("should not be signed in")
	}
}

func TestUnauthorizedClearsCredentialsAndCallsBack(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("ana", "pw")
	if _, err := f.ctl.Login(context.Background(), "ana", "pw", true); err != nil {
		t.Fatalf("Login: %v", err)
	}
	called := 0
	f.ctl.OnSignedOut(func() { called++ })

	f.srv.RevokeTokens()
	_, err := f.ctl.Profile(context.Background())
	if !errors.Is(err, ErrSignedOut) || !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected signed-out unauthorized error, got %v", err)
	}
	if called != 1 {
		t.Fatalf("expected callback once, got %d", called)
	}
	if f.ctl.SignedIn() {
		t.Fatal("credentials not cleared")
	}
	if e := f.hook.LastEntry(); e == nil || e.Level != log.WarnLevel {
		t.Fatalf("expected warn log, got %+v", e)
	}

	// a second pass through Handle must not sign out twice
	if again := f.ctl.Handle(err); !errors.Is(again, ErrSignedOut) || called != 1 {
		t.Fatalf("unexpected second handling: %v, called=%d", again, called)
	}
}

func TestHandlePassesOtherErrorsThrough(t *testing.T) {
	f := setup(t)
	boom := &api.Error{Status: http.StatusInternalServerError}
	if got := f.ctl.Handle(boom); got != boom {
		t.Fatalf("expected same error, got %v", got)
	}
	if f.ctl.Handle(nil) != nil {
		t.Fatal("nil should stay nil")
	}
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("ana", "pw")
	if _, err := f.ctl.Login(context.Background(), "ana", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.srv.Fail(http.MethodPost, "/api/accounts/logout/", http.StatusInternalServerError, 1)
	if err := f.ctl.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.ctl.SignedIn() {
		t.Fatal("still signed in after logout")
	}
}

func TestSignupThenLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if err := f.ctl.Signup(ctx, api.SignupInput{Username: "bo", Password: "secret", Email: "bo@example.com"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	u, err := f.ctl.Login(ctx, "bo", "secret", false)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Email != "bo@example.com" {
		t.Fatalf("unexpected profile: %+v", u)
	}
	if err := f.ctl.Signup(ctx, api.SignupInput{Username: "bo", Password: "x"}); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected duplicate signup to fail validation, got %v", err)
	}
}

func TestUpdateProfileFieldErrors(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("ana", "pw")
	ctx := context.Background()
	if _, err := f.ctl.Login(ctx, "ana", "pw", false); err != nil {
		t.Fatalf("Login: %v", err)
	}
	bad := "not-an-email"
	_, err := f.ctl.UpdateProfile(ctx, api.ProfileInput{Email: &bad})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields["email"]) != 1 {
		t.Fatalf("expected email field error, got %v", err)
	}
	first := "Ana"
	u, err := f.ctl.UpdateProfile(ctx, api.ProfileInput{FirstName: &first})
	if err != nil || u.DisplayName() != "Ana" {
		t.Fatalf("UpdateProfile: %+v %v", u, err)
	}
	cached, _ := f.ctl.CurrentUser()
	if cached.FirstName != "Ana" {
		t.Fatalf("profile cache not updated: %+v", cached)
	}
}
