package domain

// PageDirection selects which page a transaction load targets.
type PageDirection string

const (
	PageCurrent PageDirection = ""
	PageNext    PageDirection = "next"
	PagePrev    PageDirection = "prev"
)

// Cursor is the pagination state of the transaction browser.
// Page is zero-based and never negative.
type Cursor struct {
	Page     int
	PageSize int
}

// Offset is the index of the first item of the page.
func (c Cursor) Offset() int {
	return c.Page * c.PageSize
}

// Move returns the cursor for dir. Moving back from page zero stays on zero.
func (c Cursor) Move(dir PageDirection) Cursor {
	switch dir {
	case PageNext:
		c.Page++
	case PagePrev:
		if c.Page > 0 {
			c.Page--
		}
	}
	return c
}

// HasPrev reports whether the "previous" control is enabled.
func (c Cursor) HasPrev() bool {
	return c.Page > 0
}

// IsLastPage reports whether a page that returned n items is the last one.
func (c Cursor) IsLastPage(n int) bool {
	return n < c.PageSize
}
