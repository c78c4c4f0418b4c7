package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/artic-browser/internal/app"
	"github.com/Sternrassler/artic-browser/internal/view"
	"github.com/Sternrassler/artic-browser/pkg/artwork"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/rs/zerolog"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

// fakeListing serves total records with ids from 1000.
type fakeListing struct {
	total int
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeListing) FetchPage(ctx context.Context, page int) (*pagination.Page, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("artworks API server error (status 500)")
	}
	var records []artwork.Artwork
	for i := (page - 1) * pagination.PageSize; i < page*pagination.PageSize && i < f.total; i++ {
		records = append(records, artwork.Artwork{ID: 1000 + i, Title: "Artwork"})
	}
	return &pagination.Page{Records: records, Descriptor: pagination.NewDescriptor(f.total, page)}, nil
}

// syncBuffer is a log sink shared with server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	listing *fakeListing
	logs    *syncBuffer
}

func setupServer(t *testing.T, ready Pinger) *testEnv {
	t.Helper()

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	listing := &fakeListing{total: 133}
	logs := &syncBuffer{}
	logger := zerolog.New(logs)
	srv := New(app.NewSessions(listing, logger), renderer, ready, logger)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: ts, client: client, listing: listing, logs: logs}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) state(t *testing.T) app.State {
	t.Helper()
	resp := e.get(t, "/api/state")
	var s app.State
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return s
}

func expectRedirect(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d location = %q body = %s, want 303 to /", resp.StatusCode, resp.Header.Get("Location"), body)
	}
}

func TestHealth(t *testing.T) {
	env := setupServer(t, fakePinger{})
	resp := env.get(t, "/health")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("health = %d %q", resp.StatusCode, body)
	}
}

func TestReady(t *testing.T) {
	if resp := setupServer(t, fakePinger{}).get(t, "/ready"); resp.StatusCode != http.StatusOK {
		t.Errorf("ready = %d, want 200", resp.StatusCode)
	}
	down := setupServer(t, fakePinger{err: errors.New("connection refused")})
	if resp := down.get(t, "/ready"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready with redis down = %d, want 503", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")
	resp := env.get(t, "/metrics")
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "artic_active_sessions") {
		t.Error("metrics output missing artic_active_sessions")
	}
}

func TestIndex_InitialLoadAndCookie(t *testing.T) {
	env := setupServer(t, fakePinger{})

	resp := env.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie && c.HttpOnly && c.MaxAge == 0 {
			found = true
		}
	}
	if !found {
		t.Error("session cookie not set")
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Showing 1 to 12 of 133 entries") {
		t.Error("first page not rendered")
	}

	env.get(t, "/")
	if env.listing.calls.Load() != 1 {
		t.Errorf("fetches = %d, want 1", env.listing.calls.Load())
	}
}

func TestNavigation_PreservesSelection(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")

	expectRedirect(t, env.post(t, "/rows/1000", url.Values{"selected": {"true"}}))
	expectRedirect(t, env.post(t, "/rows/1001", url.Values{"selected": {"true"}}))
	expectRedirect(t, env.post(t, "/page", url.Values{"page": {"2"}}))

	s := env.state(t)
	if s.Pagination.CurrentPage != 2 || s.CountSelected() != 2 {
		t.Fatalf("page 2: current=%d selected=%d", s.Pagination.CurrentPage, s.CountSelected())
	}

	expectRedirect(t, env.post(t, "/page", url.Values{"page": {"1"}}))
	s = env.state(t)
	if !s.IsSelected(1000) || !s.IsSelected(1001) {
		t.Errorf("selection after navigating back = %v", s.Selected.IDs())
	}
}

func TestPage_OutOfRange(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")

	for _, page := range []string{"13", "0", "abc"} {
		if resp := env.post(t, "/page", url.Values{"page": {page}}); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("page %s: status = %d, want 400", page, resp.StatusCode)
		}
	}
	if env.listing.calls.Load() != 1 {
		t.Errorf("fetches = %d, rejected pages must not fetch", env.listing.calls.Load())
	}
}

func TestPage_FailureKeepsPreviousPage(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")
	env.listing.fail.Store(true)

	expectRedirect(t, env.post(t, "/page", url.Values{"page": {"3"}}))

	s := env.state(t)
	if s.Pagination.CurrentPage != 1 || s.Loading || len(s.Records) != 12 {
		t.Errorf("after failure: current=%d loading=%v records=%d", s.Pagination.CurrentPage, s.Loading, len(s.Records))
	}
	if !strings.Contains(env.logs.String(), "Page load failed") {
		t.Error("failure not logged")
	}
}

func TestToggleRow_Rejections(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")

	tests := []struct {
		path string
		form url.Values
	}{
		{"/rows/1012", url.Values{"selected": {"true"}}},
		{"/rows/abc", url.Values{"selected": {"true"}}},
		{"/rows/1000", url.Values{"selected": {"maybe"}}},
	}
	for _, tt := range tests {
		if resp := env.post(t, tt.path, tt.form); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s %v: status = %d, want 400", tt.path, tt.form, resp.StatusCode)
		}
	}
	if env.state(t).CountSelected() != 0 {
		t.Error("rejected toggles changed the selection")
	}
}

func TestToggleAllAndClear(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")

	expectRedirect(t, env.post(t, "/rows/all", url.Values{"selected": {"true"}}))
	if s := env.state(t); !s.IsAllCurrentPageSelected() || s.CountSelected() != 12 {
		t.Errorf("after select all: count=%d", s.CountSelected())
	}

	expectRedirect(t, env.post(t, "/rows/all", url.Values{"selected": {"false"}}))
	if s := env.state(t); s.CountSelected() != 0 {
		t.Errorf("after deselect all: count=%d", s.CountSelected())
	}

	env.post(t, "/rows/all", url.Values{"selected": {"true"}})
	expectRedirect(t, env.post(t, "/selection/clear", nil))
	if s := env.state(t); s.CountSelected() != 0 {
		t.Errorf("after clear: count=%d", s.CountSelected())
	}
}

func TestBulkSelection(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")
	env.post(t, "/rows/1011", url.Values{"selected": {"true"}})

	expectRedirect(t, env.post(t, "/panel/bulk", nil))
	if !env.state(t).ShowBulkForm {
		t.Fatal("bulk form not open")
	}

	expectRedirect(t, env.post(t, "/selection/bulk", url.Values{"count": {"5"}, "strategy": {"from-current"}}))
	s := env.state(t)
	if s.CountSelected() != 5 || s.IsSelected(1011) || !s.IsSelected(1000) {
		t.Errorf("bulk first-5 = %v", s.Selected.IDs())
	}
	if s.ShowBulkForm {
		t.Error("bulk form still open")
	}

	expectRedirect(t, env.post(t, "/selection/bulk", url.Values{"count": {"99"}, "strategy": {"random"}}))
	if s := env.state(t); s.CountSelected() != 12 || s.BulkCount != 12 {
		t.Errorf("clamped random: count=%d form=%d", s.CountSelected(), s.BulkCount)
	}

	for _, form := range []url.Values{
		{"count": {"x"}, "strategy": {"random"}},
		{"count": {"3"}, "strategy": {"everything"}},
	} {
		if resp := env.post(t, "/selection/bulk", form); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", form, resp.StatusCode)
		}
	}
}

func TestPanels(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")

	expectRedirect(t, env.post(t, "/panel/summary", nil))
	if !env.state(t).ShowSummary {
		t.Error("summary not shown")
	}
	env.post(t, "/panel/bulk", nil)
	expectRedirect(t, env.post(t, "/panel/bulk/cancel", nil))
	if env.state(t).ShowBulkForm {
		t.Error("bulk form not closed")
	}
}

func TestSessions_Isolated(t *testing.T) {
	env := setupServer(t, fakePinger{})
	env.get(t, "/")
	env.post(t, "/rows/1000", url.Values{"selected": {"true"}})

	other := &http.Client{}
	resp, err := other.Get(env.server.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var s app.State
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.CountSelected() != 0 {
		t.Error("new session sees another session's selection")
	}
}
