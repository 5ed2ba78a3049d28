package pagination

// Page is the page-number state shared by the candidate feed and the event feed.
type Page struct {
	Number     int
	Size       int
	TotalCount int64
	TotalPages int
}

// New clamps the requested page into [1, totalPages] for totalCount rows.
//
// Behavior:
//   - requested < 1 → 1.
//   - totalCount == 0 → page 1, zero total pages.
//   - requested > totalPages → totalPages.
//
// Example:
//
//	p := pagination.New(7, 10, 23) // Number=3, TotalPages=3
func New(requested, size int, totalCount int64) Page {
	if size <= 0 {
		size = 10
	}
	if requested < 1 {
		requested = 1
	}
	p := Page{Number: requested, Size: size, TotalCount: totalCount}
	if totalCount <= 0 {
		p.Number = 1
		return p
	}
	p.TotalPages = int((totalCount + int64(size) - 1) / int64(size))
	if p.Number > p.TotalPages {
		p.Number = p.TotalPages
	}
	return p
}

// Empty reports whether there is nothing to fetch.
func (p Page) Empty() bool { return p.TotalCount == 0 }

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

func (p Page) HasPrev() bool { return p.Number > 1 }

func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// PrevPage returns the previous page number or nil on the first page.
func (p Page) PrevPage() *int {
	if !p.HasPrev() {
		return nil
	}
	n := p.Number - 1
	return &n
}

// NextPage returns the next page number or nil on the last page.
func (p Page) NextPage() *int {
	if !p.HasNext() {
		return nil
	}
	n := p.Number + 1
	return &n
}
