package utils

import "strconv"

// Page describes one slice of an ordered listing. Every feed in the
// application paginates through this type so list rendering stays uniform.
type Page struct {
	Number     int   // 1-based, already clamped to a valid page
	Size       int   // items per page
	Total      int64 // total items across all pages
	TotalPages int
}

// NewPage resolves a raw page-number parameter against a total item count.
// A missing or non-numeric parameter, or one below 1, resolves to the first
// page; a number beyond the last page resolves to the last. An empty result
// set still yields one valid empty page, so callers never have to handle a
// zero-page listing.
func NewPage(total int64, size int, rawPage string) Page {
	if size < 1 {
		size = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}

	number := 1
	if n, err := strconv.Atoi(rawPage); err == nil && n >= 1 {
		number = n
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the item offset of the first entry on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool {
	return p.Number > 1
}
