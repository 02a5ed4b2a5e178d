package engine

import "github.com/nimred/encounter/internal/domain"

// HistoryDepth is how many superseded states each of the undo and redo stacks
// retains. Past the bound the oldest snapshot is evicted, not the newest.
const HistoryDepth = 10

// BoundedStack is an ordered sequence with a fixed capacity. Push appends to
// the top; once the capacity is exceeded the bottom (oldest) entry is
// discarded. A capacity of zero or less means unbounded.
type BoundedStack[T any] struct {
	items    []T
	capacity int
}

// NewBoundedStack returns a stack that holds at most capacity items.
func NewBoundedStack[T any](capacity int) *BoundedStack[T] {
	return &BoundedStack[T]{capacity: capacity}
}

// Push appends an item, evicting the oldest entry if the bound is exceeded.
func (s *BoundedStack[T]) Push(item T) {
	s.items = append(s.items, item)
	if s.capacity > 0 && len(s.items) > s.capacity {
		s.items = s.items[1:]
	}
}

// Pop removes and returns the top entry. The second return value is false
// when the stack is empty.
func (s *BoundedStack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// Len returns the number of entries on the stack.
func (s *BoundedStack[T]) Len() int {
	return len(s.items)
}

// Clear drops every entry.
func (s *BoundedStack[T]) Clear() {
	s.items = s.items[:0]
}

// History is the envelope around the canonical state: the current snapshot
// plus bounded undo and redo stacks of full deep copies.
type History struct {
	current domain.GameState
	undo    *BoundedStack[domain.GameState]
	redo    *BoundedStack[domain.GameState]
}

// NewHistory wraps an initial state with empty undo/redo stacks.
func NewHistory(initial domain.GameState) *History {
	return &History{
		current: initial,
		undo:    NewBoundedStack[domain.GameState](HistoryDepth),
		redo:    NewBoundedStack[domain.GameState](HistoryDepth),
	}
}

// Current returns the canonical state.
func (h *History) Current() domain.GameState {
	return h.current
}

// Commit makes next the canonical state, pushing the superseded state onto
// the undo stack. A forward commit invalidates the redo branch, so the redo
// stack is always cleared here.
func (h *History) Commit(next domain.GameState) {
	h.undo.Push(h.current)
	h.redo.Clear()
	h.current = next
}

// Undo restores the most recently superseded state, moving the present one
// onto the redo stack. It reports false, leaving everything untouched, when
// there is no history to unwind.
func (h *History) Undo() bool {
	prev, ok := h.undo.Pop()
	if !ok {
		return false
	}
	h.redo.Push(h.current)
	h.current = prev
	return true
}

// Redo reverses the most recent Undo. It reports false when there is nothing
// to reapply.
func (h *History) Redo() bool {
	next, ok := h.redo.Pop()
	if !ok {
		return false
	}
	h.undo.Push(h.current)
	h.current = next
	return true
}

// UndoDepth returns how many states can currently be unwound.
func (h *History) UndoDepth() int { return h.undo.Len() }

// RedoDepth returns how many undone states can currently be reapplied.
func (h *History) RedoDepth() int { return h.redo.Len() }
