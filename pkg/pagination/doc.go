// Package pagination models the page-by-page view of the artworks listing.
//
// The API pages its result set with a fixed page size. A Descriptor is derived
// from the last successful response and drives the pagination bar:
//
//	d := pagination.NewDescriptor(133, 1)
//	d.TotalPages      // 12
//	d.Contains(13)    // false
//	bar := d.Controls()
//
// PageFetcher is the contract the API client fulfils: one request per page
// change, returning the page's records together with a fresh Descriptor.
package pagination
