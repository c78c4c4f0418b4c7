// Package testutil provides a fake artworks API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/artic-browser/pkg/artwork"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
)

// MockResponse defines a canned response for one page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockArtic is a configurable fake of the artworks listing endpoint.
// By default it serves Total synthetic records, PageSize per page, with IDs
// starting at FirstID.
type MockArtic struct {
	server *httptest.Server
	mu     sync.RWMutex

	Total   int
	FirstID int

	overrides map[int]MockResponse
	etags     bool

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	LastQuery         map[string]string
}

// NewMockArtic creates a fake API holding total records.
// Its URL() is usable as the client base URL.
func NewMockArtic(total int) *MockArtic {
	mock := &MockArtic{
		Total:     total,
		FirstID:   1000,
		overrides: make(map[int]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockArtic) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockArtic) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockArtic) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// EnableETags makes default responses carry an ETag and honour If-None-Match.
func (m *MockArtic) EnableETags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etags = true
}

// SetPageResponse overrides the response for one page.
func (m *MockArtic) SetPageResponse(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockArtic) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockArtic) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetLastQuery returns the query parameters of the most recent request.
func (m *MockArtic) GetLastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockArtic) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// PageIDs returns the IDs the mock serves on page, in display order.
func (m *MockArtic) PageIDs(page int) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return artwork.IDs(m.records(page))
}

func (m *MockArtic) records(page int) []artwork.Artwork {
	var out []artwork.Artwork
	start := (page - 1) * pagination.PageSize
	for i := start; i < start+pagination.PageSize && i < m.Total; i++ {
		id := m.FirstID + i
		out = append(out, artwork.Artwork{
			ID:            id,
			Title:         fmt.Sprintf("Artwork %d", id),
			PlaceOfOrigin: "Chicago",
			ArtistDisplay: "Unknown artist",
			DateStart:     1900 + i%100,
			DateEnd:       1901 + i%100,
		})
	}
	return out
}

func (m *MockArtic) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	m.LastQuery = map[string]string{}
	for k := range r.URL.Query() {
		m.LastQuery[k] = r.URL.Query().Get(k)
	}
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.ConditionalCount++
	}
	m.mu.Unlock()

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	m.mu.RLock()
	override, ok := m.overrides[page]
	etags := m.etags
	m.mu.RUnlock()

	if ok {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for key, value := range override.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))

	etag := fmt.Sprintf(`"page-%d"`, page)
	if etags {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.WriteHeader(http.StatusOK)
	w.Write(m.ListingBody(page))
}

// ListingBody renders the JSON body the mock serves for page.
func (m *MockArtic) ListingBody(page int) []byte {
	m.mu.RLock()
	records := m.records(page)
	total := m.Total
	m.mu.RUnlock()

	if records == nil {
		records = []artwork.Artwork{}
	}
	body, _ := json.Marshal(artwork.ListResponse{
		Data: records,
		Pagination: artwork.ResponsePagination{
			Total:       total,
			Limit:       pagination.PageSize,
			Offset:      (page - 1) * pagination.PageSize,
			TotalPages:  pagination.TotalPages(total, pagination.PageSize),
			CurrentPage: page,
		},
	})
	return body
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status":500,"error":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewNotFoundResponse creates a 404 response like the API's for out-of-range pages.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"status":404,"error":"Not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewMalformedResponse creates a 200 response whose body is not a listing.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>maintenance</html>`,
		Headers:    map[string]string{"Content-Type": "text/html"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status":429,"error":"Too many requests"}`,
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
		},
	}
}
