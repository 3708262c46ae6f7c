package router

// History is the console's navigation stack.
type History struct {
	entries []string
}

// NewHistory returns a history positioned at start.
func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

// Current returns the active route, or "" for an empty history.
func (h *History) Current() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Push adds route on top of the stack.
func (h *History) Push(route string) {
	h.entries = append(h.entries, route)
}

// Replace swaps the current entry for route. The replaced entry is gone,
// so Back can never return to it.
func (h *History) Replace(route string) {
	if len(h.entries) == 0 {
		h.entries = append(h.entries, route)
		return
	}
	h.entries[len(h.entries)-1] = route
}

// Back drops the current entry and returns the new current one.
// It reports false when there is nothing to go back to.
func (h *History) Back() (string, bool) {
	if len(h.entries) < 2 {
		return h.Current(), false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.Current(), true
}

// Reset clears the stack and starts over at route.
func (h *History) Reset(route string) {
	h.entries = []string{route}
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
