// Package conversation holds the bounded chat history for a session.
package conversation

// Turn is one (role, text) entry of the conversation.
type Turn struct {
	Role string
	Text string
}

// History is a bounded FIFO sequence of conversation turns. Once either the
// turn count or the character budget is exceeded, the oldest turns are
// evicted. The system prompt is not stored here and is never evicted.
//
// History is not safe for concurrent use; callers serialize access.
type History struct {
	turns    []Turn
	maxTurns int
	maxChars int
	chars    int
}

// NewHistory creates a bounded history. Non-positive limits disable the
// corresponding bound.
func NewHistory(maxTurns, maxChars int) *History {
	return &History{maxTurns: maxTurns, maxChars: maxChars}
}

// Append adds a turn and evicts from the front until both bounds hold.
func (h *History) Append(role, text string) {
	h.turns = append(h.turns, Turn{Role: role, Text: text})
	h.chars += len(role) + len(text)
	h.evict()
}

// Turns returns a copy of the current turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of retained turns.
func (h *History) Len() int { return len(h.turns) }

// Clear drops all turns.
func (h *History) Clear() {
	h.turns = nil
	h.chars = 0
}

func (h *History) evict() {
	for len(h.turns) > 1 && h.exceeded() {
		first := h.turns[0]
		h.chars -= len(first.Role) + len(first.Text)
		h.turns = h.turns[1:]
	}
}

// exceeded reports whether any configured bound is currently violated.
// The newest turn is always retained, even if it alone exceeds the budget.
func (h *History) exceeded() bool {
	if h.maxTurns > 0 && len(h.turns) > h.maxTurns {
		return true
	}
	if h.maxChars > 0 && h.chars > h.maxChars {
		return true
	}
	return false
}
