package whistle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

// testConfig points the client at an httptest server.
func testConfig(t *testing.T, srv *httptest.Server) Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return Config{Scheme: u.Scheme, Host: u.Host, APIPath: "api"}
}

func TestURLComposition(t *testing.T) {
	c := New("a@b.com", "pw", resty.New())
	cfg := Config{Scheme: "https", Host: "app.whistle.com", APIPath: "api"}
	got := c.url(cfg, "pets/1/owners")
	want := "https://app.whistle.com/api/pets/1/owners"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}

func TestFilterParamsDropsNilValues(t *testing.T) {
	v := "2024-01-02"
	out := filterParams(map[string]*string{
		"start_date": &v,
		"end_date":   nil,
	})
	if len(out) != 1 || out["start_date"] != v {
		t.Fatalf("filtered params = %#v", out)
	}
	if out = filterParams(map[string]*string{"a": nil}); out != nil {
		t.Fatalf("expected nil for all-absent params, got %#v", out)
	}
}

func TestDailiesRangeDefaulting(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s, e := dailiesRange(&start, nil, nowFn)
	if s == nil || *s != "2024-06-01" {
		t.Fatalf("start = %v, want 2024-06-01", s)
	}
	if e == nil || *e != "2024-06-15" {
		t.Fatalf("end should default to now, got %v", e)
	}

	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	s, e = dailiesRange(nil, &end, nowFn)
	if s == nil || *s != "1970-01-01" {
		t.Fatalf("start should default to epoch, got %v", s)
	}
	if e == nil || *e != "2024-06-10" {
		t.Fatalf("end = %v, want 2024-06-10", e)
	}

	s, e = dailiesRange(nil, nil, nowFn)
	if s != nil || e != nil {
		t.Fatalf("both absent should stay absent, got %v %v", s, e)
	}
}

func TestLoginAndListPetsScenario(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("login method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("login must not send Authorization, got %q", got)
		}
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if creds.Email != "a@b.com" || creds.Password != "pw" {
			t.Fatalf("unexpected credentials %#v", creds)
		}
		w.Write([]byte(`{"auth_token":"tok123"}`))
	})
	mux.HandleFunc("/api/pets", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Fatalf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != acceptVersion {
			t.Fatalf("Accept = %q", got)
		}
		w.Write([]byte(`[{"id":1,"name":"Rex"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("a@b.com", "pw", resty.New())
	cfg := testConfig(t, srv)
	if err := c.Init(context.Background(), &cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	raw, err := c.Pets(context.Background())
	if err != nil {
		t.Fatalf("Pets: %v", err)
	}
	if string(raw) != `[{"id":1,"name":"Rex"}]` {
		t.Fatalf("Pets body = %s", raw)
	}
}

func TestResourceMethodBeforeInit(t *testing.T) {
	c := New("a@b.com", "pw", resty.New())
	if _, err := c.Pets(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitReusesCachedToken(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, _ *http.Request) {
		logins++
		w.Write([]byte(`{"auth_token":"T"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("a@b.com", "pw", resty.New())
	cfg := testConfig(t, srv)
	for i := 0; i < 2; i++ {
		if err := c.Init(context.Background(), &cfg); err != nil {
			t.Fatalf("Init #%d: %v", i, err)
		}
	}
	if logins != 1 {
		t.Fatalf("expected a single login exchange, got %d", logins)
	}
}

func TestLoginMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New("a@b.com", "pw", resty.New())
	cfg := testConfig(t, srv)
	if err := c.Init(context.Background(), &cfg); !errors.Is(err, ErrMissingAuthToken) {
		t.Fatalf("expected ErrMissingAuthToken, got %v", err)
	}
}

func TestHTTPErrorPropagation(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/login" {
				w.Write([]byte(`{"auth_token":"T"}`))
				return
			}
			http.Error(w, "nope", status)
		}))

		c := New("a@b.com", "pw", resty.New())
		cfg := testConfig(t, srv)
		if err := c.Init(context.Background(), &cfg); err != nil {
			t.Fatalf("Init: %v", err)
		}

		_, err := c.Stats(context.Background(), "1")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected *APIError, got %v", status, err)
		}
		if apiErr.StatusCode != status {
			t.Fatalf("StatusCode = %d, want %d", apiErr.StatusCode, status)
		}
		srv.Close()
	}
}

func TestMalformedJSONPropagation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"auth_token":"T"}`))
	})
	mux.HandleFunc("/api/places", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("a@b.com", "pw", resty.New())
	cfg := testConfig(t, srv)
	if err := c.Init(context.Background(), &cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, err := c.Places(context.Background())
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if decodeErr.Resource != "places" {
		t.Fatalf("DecodeError.Resource = %q", decodeErr.Resource)
	}
}

func TestDailiesQueryParams(t *testing.T) {
	var gotQuery url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"auth_token":"T"}`))
	})
	mux.HandleFunc("/api/pets/7/dailies", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"dailies":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("a@b.com", "pw", resty.New())
	c.now = func() time.Time { return time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC) }
	cfg := testConfig(t, srv)
	if err := c.Init(context.Background(), &cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := c.Dailies(context.Background(), "7", &start, nil); err != nil {
		t.Fatalf("Dailies: %v", err)
	}
	if got := gotQuery.Get("start_date"); got != "2024-03-01" {
		t.Fatalf("start_date = %q", got)
	}
	if got := gotQuery.Get("end_date"); got != "2024-03-09" {
		t.Fatalf("end_date = %q", got)
	}

	// Both dates absent: no params at all.
	if _, err := c.Dailies(context.Background(), "7", nil, nil); err != nil {
		t.Fatalf("Dailies no range: %v", err)
	}
	if len(gotQuery) != 0 {
		t.Fatalf("expected no query params, got %v", gotQuery)
	}
}
