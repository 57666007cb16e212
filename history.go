package fileselect

import "slices"

// history is the browser-like memory of visited directories. The
// cursor points at the entry currently shown, and is -1 only before
// the first visit.
type history struct {
	stack  []string
	cursor int
}

func newHistory() history {
	return history{cursor: -1}
}

// push records a fresh visit to path. Revisiting the entry under the
// cursor is not recorded. Otherwise anything ahead of the cursor is
// dropped before path is appended, so the cursor always ends up on
// the last entry.
func (h *history) push(path string) {
	if h.cursor >= 0 && h.stack[h.cursor] == path {
		return
	}

	h.stack = append(h.stack[:h.cursor+1], path)
	h.cursor = len(h.stack) - 1
}

// peek returns the entry delta steps away from the cursor, if any.
func (h history) peek(delta int) (string, bool) {
	i := h.cursor + delta
	if h.cursor < 0 || i < 0 || i >= len(h.stack) {
		return "", false
	}

	return h.stack[i], true
}

// move shifts the cursor by delta, clamped to the stack.
func (h *history) move(delta int) {
	h.cursor = max(0, min(h.cursor+delta, len(h.stack)-1))
}

func (h history) canBack() bool {
	return h.cursor > 0
}

func (h history) canForward() bool {
	return h.cursor < len(h.stack)-1
}

func (h history) entries() []string {
	return slices.Clone(h.stack)
}
