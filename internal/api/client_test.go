package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Makepad-fr/board/internal/model"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exp
}

func newTestClient(t *testing.T, h http.Handler, token string) (*Client, *test.Hook) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	c, err := New(srv.URL+"/api", StaticToken(token), WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, hook
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api/", nil); err == nil {
		t.Fatal("expected error for relative url")
	}
	c, err := New("http://example.com/api", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BaseURL() != "http://example.com/api/" {
		t.Fatalf("unexpected base %q", c.BaseURL())
	}
}

func TestBearerAndHeaders(t *testing.T) {
	var got *http.Request
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":3,"title":"Roadmap","description":"","created_at":"2024-05-01T10:00:00Z"}]`)
	})
	c, hook := newTestClient(t, h, "tok123")

	boards, err := c.ListBoards(context.Background())
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 1 || boards[0].Title != "Roadmap" {
		t.Fatalf("unexpected boards %+v", boards)
	}
	if got.URL.Path != "/api/boards/" {
		t.Fatalf("unexpected path %s", got.URL.Path)
	}
	if a := got.Header.Get("Authorization"); a != "Bearer tok123" {
		t.Fatalf("unexpected auth header %q", a)
	}
	if got.Header.Get(requestIDHeader) == "" {
		t.Fatal("missing request id")
	}

	e := hook.LastEntry()
	if e == nil || e.Level != log.DebugLevel || e.Data["status"] != 200 || e.Data["path"] != "/boards/" {
		t.Fatalf("unexpected log entry %+v", e)
	}
	if _, ok := e.Data["request_id"]; !ok {
		t.Fatal("request_id not logged")
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("unexpected Authorization header")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestClient(t, h, "")
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
}

func TestQueryParameters(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cards/":
			if r.URL.Query().Get("list") != "7" {
				t.Errorf("missing list query: %s", r.URL.RawQuery)
			}
		case "/api/accounts/search-users/":
			if r.URL.Query().Get("q") != "an a" || r.URL.Query().Get("board") != "2" {
				t.Errorf("bad search query: %s", r.URL.RawQuery)
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `[]`)
	})
	c, _ := newTestClient(t, h, "x")
	if _, err := c.ListCards(context.Background(), 7); err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if _, err := c.SearchUsers(context.Background(), "an a", 2); err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		is      error
		message string
		fields  map[string]int
	}{
		{"unauthorized", 401, `{"detail":"Given token not valid for any token type"}`, ErrUnauthorized, "Given token not valid for any token type", nil},
		{"not found", 404, `{"detail":"Not found."}`, ErrNotFound, "Not found.", nil},
		{"field errors", 400, `{"title":["This field may not be blank."],"list":"Invalid pk."}`, ErrValidation, "list: Invalid pk.; title: This field may not be blank.", map[string]int{"title": 1, "list": 1}},
		{"error key", 400, `{"error":"Username already taken."}`, ErrValidation, "Username already taken.", nil},
		{"unprocessable", 422, `{"message":"bad"}`, ErrValidation, "bad", nil},
		{"plain text", 502, `Bad Gateway`, nil, "Bad Gateway", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			c, hook := newTestClient(t, h, "x")
			_, err := c.GetBoard(context.Background(), 1)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T %v", err, err)
			}
			if apiErr.Status != tc.status || apiErr.Message != tc.message {
				t.Fatalf("unexpected error %+v", apiErr)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected errors.Is %v", tc.is)
			}
			for f, n := range tc.fields {
				if len(apiErr.Fields[f]) != n {
					t.Fatalf("field %s: %v", f, apiErr.Fields)
				}
			}
			if errors.Is(err, ErrTransport) {
				t.Fatal("http errors are not transport errors")
			}
			if e := hook.LastEntry(); e == nil || e.Level != log.WarnLevel {
				t.Fatalf("expected warn log, got %+v", e)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	logger, _ := test.NewNullLogger()
	c, err := New(url+"/api/", StaticToken("x"), WithLogger(logger), WithTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ListBoards(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Path != "/boards/" {
		t.Fatalf("unexpected %+v", te)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("transport error must not look like 401")
	}
}

func TestSpans(t *testing.T) {
	exp := setupTestTracer(t)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, `{"id":9,"list":2,"title":"t","description":"","order":0,"created_at":"2024-05-01T10:00:00Z"}`)
	})
	c, _ := newTestClient(t, h, "x")
	list := 2
	if _, err := c.UpdateCard(context.Background(), 9, model.CardInput{List: &list}); err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	_ = c.DeleteCard(context.Background(), 9)

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "api PATCH /cards/9/" {
		t.Fatalf("unexpected span name %q", spans[0].Name)
	}
	if spans[0].Status.Code == codes.Error {
		t.Fatal("successful call marked as error")
	}
	if spans[1].Status.Code != codes.Error {
		t.Fatalf("failed call not marked: %+v", spans[1].Status)
	}
	found := false
	for _, a := range spans[1].Attributes {
		if string(a.Key) == "http.status_code" && a.Value.AsInt64() == 403 {
			found = true
		}
	}
	if !found {
		t.Fatalf("status attribute missing: %+v", spans[1].Attributes)
	}
}

func TestUpdateCardBodyOmitsUnsetFields(t *testing.T) {
	var body string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_, _ = io.WriteString(w, `{"id":1,"list":4,"title":"x","description":"","order":0,"created_at":"2024-05-01T10:00:00Z"}`)
	})
	c, _ := newTestClient(t, h, "x")
	list, order := 4, 0
	if _, err := c.UpdateCard(context.Background(), 1, model.CardInput{List: &list, Order: &order}); err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}
	if body != `{"list":4,"order":0}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestUploadAttachmentMultipart(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("card") != "5" {
			t.Errorf("card field = %q", r.FormValue("card"))
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if fh.Filename != "a.txt" || string(b) != "hello" {
			t.Errorf("unexpected file %s %q", fh.Filename, b)
		}
		_, _ = io.WriteString(w, `{"id":1,"card":5,"file":"/media/a.txt","uploaded_at":"2024-05-01T10:00:00Z"}`)
	})
	c, _ := newTestClient(t, h, "x")
	a, err := c.UploadAttachment(context.Background(), 5, "a.txt", strings.NewReader("hello"))
	if err != nil || a.ID != 1 {
		t.Fatalf("UploadAttachment: %+v %v", a, err)
	}
}

func TestDeleteAttachmentSendsIDInBody(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if r.Method != http.MethodDelete || r.URL.Path != "/api/attachments/" || string(b) != `{"id":12}` {
			t.Errorf("unexpected request %s %s %s", r.Method, r.URL.Path, b)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestClient(t, h, "x")
	if err := c.DeleteAttachment(context.Background(), 12); err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}
}

func TestInstallTracingLogsSpans(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	shutdown := InstallTracing(logger)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	c, _ := newTestClient(t, h, "x")
	if _, err := c.ListBoards(context.Background()); err != nil {
		t.Fatalf("ListBoards: %v", err)
	}

	var entry *log.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "span api GET /boards/" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatalf("span not logged: %+v", hook.AllEntries())
	}
	if entry.Level != log.DebugLevel || entry.Data["http.method"] != "GET" || entry.Data["trace_id"] == "" {
		t.Fatalf("unexpected span entry %+v", entry.Data)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	hook.Reset()
	if _, err := c.ListBoards(context.Background()); err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("spans logged after shutdown: %+v", hook.AllEntries())
	}
}
