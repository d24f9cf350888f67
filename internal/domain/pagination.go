package domain

import "strconv"

// Page describes one page of a listing. Numbers are 1-based.
type Page struct {
	Number   int
	Size     int
	NumPages int
	Total    int64
}

// NewPage resolves a raw page parameter against total rows. Unparseable input
// yields the first page and out-of-range numbers yield the last page, so a
// listing never 404s on a stale link.
func NewPage(raw string, total int64, size int) Page {
	if size <= 0 {
		size = 1
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		n = 1
	case n < 1 || n > numPages:
		n = numPages
	}
	return Page{Number: n, Size: size, NumPages: numPages, Total: total}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}
func (p Page) PreviousNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int     { return p.Number + 1 }

// StartIndex is the 1-based index of the first row on the page, 0 when empty.
func (p Page) StartIndex() int64 {
	if p.Total == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

// EndIndex is the 1-based index of the last row on the page.
func (p Page) EndIndex() int64 {
	end := int64(p.Number * p.Size)
	if end > p.Total {
		end = p.Total
	}
	return end
}
