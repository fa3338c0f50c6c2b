package state

// HistoryCap bounds every telemetry history.
const HistoryCap = 1000

// History is a bounded FIFO that drops its oldest entry once full.
// It is not safe for concurrent use; Shared guards it.
type History[T any] struct {
	cap   int
	items []T
}

// NewHistory returns an empty history holding at most capacity entries.
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &History[T]{cap: capacity}
}

// Push appends v, evicting the oldest entry when at capacity.
func (h *History[T]) Push(v T) {
	if len(h.items) == h.cap {
		copy(h.items, h.items[1:])
		h.items[len(h.items)-1] = v
		return
	}
	h.items = append(h.items, v)
}

// Len returns the number of stored entries.
func (h *History[T]) Len() int { return len(h.items) }

// Last returns the newest entry.
func (h *History[T]) Last() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	return h.items[len(h.items)-1], true
}

// Values returns a copy of the entries, oldest first.
func (h *History[T]) Values() []T {
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

// Clear drops every entry.
func (h *History[T]) Clear() { h.items = h.items[:0] }
