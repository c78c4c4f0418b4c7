package cache

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func listingResponse(header http.Header) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(`{"data":[],"pagination":{"total":0}}`)),
	}
}

func TestResponseToEntry_CapturesValidators(t *testing.T) {
	lastMod := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	resp := listingResponse(http.Header{
		"Etag":          {`"page-2"`},
		"Last-Modified": {lastMod.Format(http.TimeFormat)},
		"Expires":       {expires.Format(http.TimeFormat)},
		"Content-Type":  {"application/json"},
	})

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if entry.ETag != `"page-2"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if !entry.Expires.Equal(expires) {
		t.Errorf("Expires = %v, want %v", entry.Expires, expires)
	}
	if entry.StatusCode != http.StatusOK || entry.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("status/headers = %d/%v", entry.StatusCode, entry.Headers)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(entry.Data) || len(body) == 0 {
		t.Errorf("body not restored: %q vs %q", body, entry.Data)
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("ResponseToEntry(nil) error = nil")
	}
}

func TestExpiresFrom(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header string
		want   time.Time
	}{
		{name: "future", header: now.Add(10 * time.Minute).Format(http.TimeFormat), want: now.Add(10 * time.Minute)},
		{name: "missing", header: "", want: now.Add(DefaultTTL)},
		{name: "malformed", header: "tomorrow", want: now.Add(DefaultTTL)},
		{name: "past", header: now.Add(-time.Hour).Format(http.TimeFormat), want: now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Expires", tt.header)
			}
			if got := expiresFrom(h, now); !got.Equal(tt.want) {
				t.Errorf("expiresFrom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		entry         *CacheEntry
		wantCond      bool
		wantNoneMatch string
		wantModSince  string
	}{
		{name: "nil entry"},
		{name: "no validators", entry: &CacheEntry{Data: []byte("{}")}},
		{name: "etag", entry: &CacheEntry{ETag: `"page-1"`}, wantCond: true, wantNoneMatch: `"page-1"`},
		{name: "last modified", entry: &CacheEntry{LastModified: lastMod}, wantCond: true, wantModSince: "Sun, 07 Jan 2024 09:00:00 GMT"},
		{name: "etag wins", entry: &CacheEntry{ETag: `"page-1"`, LastModified: lastMod}, wantCond: true, wantNoneMatch: `"page-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.wantCond {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.wantCond)
			}

			req, _ := http.NewRequest(http.MethodGet, "https://api.artic.edu/api/v1/artworks", nil)
			AddConditionalHeaders(req, tt.entry)
			if got := req.Header.Get("If-None-Match"); got != tt.wantNoneMatch {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantNoneMatch)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantModSince {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantModSince)
			}
		})
	}

	// nil request must not panic
	AddConditionalHeaders(nil, &CacheEntry{ETag: `"x"`})
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`{"data":[]}`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": {"application/json"}},
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK || resp.Status != "200 OK" {
		t.Errorf("status = %d %q", resp.StatusCode, resp.Status)
	}
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Error("X-Cache header not set")
	}
	if entry.Headers.Get("X-Cache") != "" {
		t.Error("EntryToResponse mutated the stored headers")
	}
	if resp.ContentLength != int64(len(entry.Data)) {
		t.Errorf("ContentLength = %d", resp.ContentLength)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"data":[]}` {
		t.Errorf("body = %s", body)
	}

	if resp := EntryToResponse(&CacheEntry{Data: []byte("x")}); resp.StatusCode != http.StatusOK {
		t.Errorf("default status = %d, want 200", resp.StatusCode)
	}
}
