package entity

import "time"

// HistoryEntry is one completed inquiry/answer exchange. Entries are
// appended only after the Respond stage finishes; a failed pipeline run
// leaves no trace here.
type HistoryEntry struct {
	Inquiry    string
	Thought    string
	Keyphrases string
	Topic      string
	References []Reference
	Answer     string
	Duration   time.Duration
	Stages     []StageEvent
}

// History is one conversation's ordered, append-only exchange log. It is not
// safe for concurrent use; each front-end serializes access to a given
// conversation.
type History struct {
	entries []HistoryEntry
}

// Append records a completed exchange.
func (h *History) Append(e HistoryEntry) {
	h.entries = append(h.entries, e)
}

// Recent returns the last n entries (fewer when the history is shorter).
// The returned slice aliases the history and must not be mutated.
func (h *History) Recent(n int) []HistoryEntry {
	if n >= len(h.entries) {
		return h.entries
	}
	return h.entries[len(h.entries)-n:]
}

// All returns every entry, oldest first. The returned slice aliases the
// history and must not be mutated.
func (h *History) All() []HistoryEntry {
	return h.entries
}

// Last returns the most recent entry, if any.
func (h *History) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len reports the number of completed exchanges.
func (h *History) Len() int {
	return len(h.entries)
}

// Reset drops all entries.
func (h *History) Reset() {
	h.entries = nil
}
