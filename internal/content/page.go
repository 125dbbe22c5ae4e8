package content

// Window is a clamped page request.
type Window struct {
	Page  int
	Limit int
}

// NewWindow clamps page and limit to at least 1. No upper bound is applied
// here; transport layers cap limit.
func NewWindow(page, limit int) Window {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	return Window{Page: page, Limit: limit}
}

func (w Window) Offset() int {
	return (w.Page - 1) * w.Limit
}

// End is the exclusive end index of the window, which is also how many
// leading items of an ordered source are needed to fill it.
func (w Window) End() int {
	return w.Page * w.Limit
}

func (w Window) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + w.Limit - 1) / w.Limit
}

// Slice cuts the window out of an ordered sequence.
func Slice[T any](items []T, w Window) []T {
	start := w.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := w.End()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
