package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultTTL applies when a response has no usable Expires header.
const DefaultTTL = 5 * time.Minute

// ResponseToEntry captures resp for storage. The body is consumed and
// replaced by an in-memory copy so the caller can still read it.
func ResponseToEntry(resp *http.Response) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	entry := &CacheEntry{
		Data:       body,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		ETag:       resp.Header.Get("ETag"),
		CachedAt:   now,
		Expires:    expiresFrom(resp.Header, now),
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		entry.LastModified = t
	}
	return entry, nil
}

// EntryToResponse replays a stored entry as a response marked X-Cache: HIT.
func EntryToResponse(entry *CacheEntry) *http.Response {
	header := http.Header{}
	for k, v := range entry.Headers {
		header[k] = append([]string(nil), v...)
	}
	header.Set("X-Cache", "HIT")

	code := entry.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	return &http.Response{
		Status:        strconv.Itoa(code) + " " + http.StatusText(code),
		StatusCode:    code,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
	}
}

// expiresFrom reads Expires relative to now. Missing or malformed values
// give now+DefaultTTL; past values give now, which the manager never stores.
func expiresFrom(h http.Header, now time.Time) time.Time {
	t, err := http.ParseTime(h.Get("Expires"))
	switch {
	case err != nil:
		return now.Add(DefaultTTL)
	case t.Before(now):
		return now
	default:
		return t
	}
}

// ShouldMakeConditionalRequest reports whether entry can be revalidated.
func ShouldMakeConditionalRequest(entry *CacheEntry) bool {
	return entry != nil && entry.HasValidator()
}

// AddConditionalHeaders sets If-None-Match, or If-Modified-Since when the
// entry has no ETag.
func AddConditionalHeaders(req *http.Request, entry *CacheEntry) {
	if req == nil || entry == nil {
		return
	}
	switch {
	case entry.ETag != "":
		req.Header.Set("If-None-Match", entry.ETag)
	case !entry.LastModified.IsZero():
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
}
