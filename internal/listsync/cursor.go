package listsync

// DefaultPageSize applies when a Config leaves PageSize unset.
const DefaultPageSize = 20

// PageCursor tracks offset pagination for one generation.
type PageCursor struct {
	Offset    int
	PageSize  int
	Exhausted bool
}

// NewCursor returns the initial cursor for pageSize.
func NewCursor(pageSize int) PageCursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return PageCursor{PageSize: pageSize}
}

// Advance moves past returned items. A short page marks the end of data;
// neither the offset nor exhaustion ever move backwards here.
func (c PageCursor) Advance(returned int) PageCursor {
	if returned < 0 {
		returned = 0
	}
	c.Offset += returned
	if returned < c.PageSize {
		c.Exhausted = true
	}
	return c
}

// Reset returns to the first page, keeping the page size.
func (c PageCursor) Reset() PageCursor {
	return NewCursor(c.PageSize)
}

// HasMore reports whether another append load may return items.
func (c PageCursor) HasMore() bool {
	return !c.Exhausted
}
