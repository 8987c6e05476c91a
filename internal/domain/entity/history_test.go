package entity

import "testing"

func entry(inquiry string) HistoryEntry {
	return HistoryEntry{Inquiry: inquiry, Answer: "answer to " + inquiry}
}

func TestHistory_AppendAndLast(t *testing.T) {
	h := &History{}

	if _, ok := h.Last(); ok {
		t.Error("empty history must have no last entry")
	}
	if h.Len() != 0 {
		t.Errorf("empty length: %d", h.Len())
	}

	h.Append(entry("q1"))
	h.Append(entry("q2"))

	last, ok := h.Last()
	if !ok || last.Inquiry != "q2" {
		t.Errorf("last: %v %+v", ok, last)
	}
	if h.Len() != 2 {
		t.Errorf("length: %d", h.Len())
	}
}

func TestHistory_Recent(t *testing.T) {
	h := &History{}
	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		h.Append(entry(q))
	}

	recent := h.Recent(3)
	if len(recent) != 3 || recent[0].Inquiry != "q2" || recent[2].Inquiry != "q4" {
		t.Errorf("recent(3): %+v", recent)
	}

	// Asking for more than exists returns everything.
	if got := h.Recent(10); len(got) != 4 {
		t.Errorf("recent(10): %d entries", len(got))
	}
	if got := h.Recent(0); len(got) != 0 {
		t.Errorf("recent(0): %d entries", len(got))
	}
}

func TestHistory_AllOrdered(t *testing.T) {
	h := &History{}
	h.Append(entry("first"))
	h.Append(entry("second"))

	all := h.All()
	if len(all) != 2 || all[0].Inquiry != "first" || all[1].Inquiry != "second" {
		t.Errorf("all: %+v", all)
	}
}

func TestHistory_Reset(t *testing.T) {
	h := &History{}
	h.Append(entry("q1"))
	h.Reset()

	if h.Len() != 0 {
		t.Errorf("length after reset: %d", h.Len())
	}
	if _, ok := h.Last(); ok {
		t.Error("reset history must have no last entry")
	}
}
