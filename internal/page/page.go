// Package page holds the pagination values shared by every list in the ledger.
package page

// Unlimited as a page length returns every record on a single page.
const Unlimited = -1

// Request selects one page of a list. Number is 1-based.
type Request struct {
	Number int
	Length int
}

// New returns a Request, substituting defaultLength when length is zero.
func New(number, length, defaultLength int) Request {
	if number < 1 {
		number = 1
	}
	if length == 0 {
		length = defaultLength
	}
	return Request{Number: number, Length: length}
}

// Offset is the number of records skipped before this page.
func (r Request) Offset() int {
	if r.Length <= 0 || r.Number <= 1 {
		return 0
	}
	return (r.Number - 1) * r.Length
}

// Limit is the maximum number of records on the page; -1 means no limit.
func (r Request) Limit() int {
	if r.Length <= 0 {
		return -1
	}
	return r.Length
}

// Page is one page of a list plus the size of the whole list.
type Page[T any] struct {
	Items  []T
	Number int
	Length int
	Total  int
}

// Of builds a Page for the records returned by a Request.
func Of[T any](req Request, items []T, total int) Page[T] {
	return Page[T]{Items: items, Number: max(req.Number, 1), Length: req.Length, Total: total}
}

// NumPages returns the number of pages needed for Total records.
func (p Page[T]) NumPages() int {
	if p.Length <= 0 {
		if p.Total == 0 {
			return 0
		}
		return 1
	}
	n := p.Total / p.Length
	if n*p.Length != p.Total {
		n++
	}
	return n
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages()
}
