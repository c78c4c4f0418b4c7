// Package artwork defines the artwork record served by the Art Institute of
// Chicago public API.
package artwork

import (
	"encoding/json"
	"strings"
)

// Fields is the field projection requested from the API, in column order.
var Fields = []string{
	"id",
	"title",
	"place_of_origin",
	"artist_display",
	"inscriptions",
	"date_start",
	"date_end",
}

// FieldList returns Fields joined for the "fields" query parameter.
func FieldList() string {
	return strings.Join(Fields, ",")
}

// Artwork is one record of the artworks endpoint.
// The API returns null for unknown strings and years; those decode to the zero value.
type Artwork struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`
	DateStart     int    `json:"date_start"`
	DateEnd       int    `json:"date_end"`
}

// ResponsePagination is the pagination block of an artworks listing.
type ResponsePagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// ListResponse is the body of GET /artworks.
type ListResponse struct {
	Data       []Artwork          `json:"data"`
	Pagination ResponsePagination `json:"pagination"`
}

// DecodeList parses a listing body. A body without a data array is rejected.
func DecodeList(body []byte) (*ListResponse, error) {
	var raw struct {
		Data       *[]Artwork          `json:"data"`
		Pagination *ResponsePagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Data == nil {
		return nil, errMissing("data")
	}
	if raw.Pagination == nil {
		return nil, errMissing("pagination")
	}
	return &ListResponse{Data: *raw.Data, Pagination: *raw.Pagination}, nil
}

// IDs returns the identifiers of records in order.
func IDs(records []Artwork) []int {
	ids := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

type errMissing string

func (e errMissing) Error() string {
	return "malformed listing: missing " + string(e)
}
