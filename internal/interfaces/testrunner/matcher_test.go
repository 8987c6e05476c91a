package testrunner

import (
	"reflect"
	"testing"
)

// === Fence parsing ===

func TestCompileExpectation_Fences(t *testing.T) {
	exp, err := CompileExpectation("capital /Paris/ and /France/")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(exp.patterns) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(exp.patterns))
	}

	if ok, _ := exp.Match("The capital of france is paris."); !ok {
		t.Error("case-insensitive conjunction should match")
	}
	if ok, _ := exp.Match("Paris stands alone."); ok {
		t.Error("missing probe must fail the match")
	}
}

func TestCompileExpectation_NoFencesWholeString(t *testing.T) {
	exp, err := CompileExpectation("Pitch Lake")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(exp.patterns) != 1 {
		t.Fatalf("expected 1 probe, got %d", len(exp.patterns))
	}
	if ok, _ := exp.Match("the famous pitch lake of Trinidad"); !ok {
		t.Error("whole-string probe should match case-insensitively")
	}
}

func TestCompileExpectation_EscapedSlash(t *testing.T) {
	exp, err := CompileExpectation(`/application\/json/`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if ok, _ := exp.Match("Content-Type: application/json"); !ok {
		t.Error("escaped slash must match a literal slash")
	}
}

func TestCompileExpectation_UnclosedFenceDropped(t *testing.T) {
	exp, err := CompileExpectation("/closed/ /unclosed")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(exp.patterns) != 1 {
		t.Fatalf("expected the unclosed fence dropped, got %d probes", len(exp.patterns))
	}
	if ok, _ := exp.Match("closed it is"); !ok {
		t.Error("remaining probe should match")
	}
}

func TestCompileExpectation_EmptyFenceMatchesAnywhere(t *testing.T) {
	exp, err := CompileExpectation("//")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if ok, _ := exp.Match("anything at all"); !ok {
		t.Error("empty probe should match any target")
	}
}

func TestCompileExpectation_InvalidRegex(t *testing.T) {
	if _, err := CompileExpectation("/[/"); err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestExpectation_String(t *testing.T) {
	exp, err := CompileExpectation("/a/ plus /b/")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if exp.String() != "/a/ plus /b/" {
		t.Errorf("String() = %q", exp.String())
	}
}

// === Match spans ===

func TestMatch_Spans(t *testing.T) {
	exp, err := CompileExpectation("/ab/")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	ok, spans := exp.Match("abcdab")
	if !ok {
		t.Fatal("expected a match")
	}
	if !reflect.DeepEqual(spans, [][]int{{0, 2}, {4, 6}}) {
		t.Errorf("spans: %v", spans)
	}
}

// === Highlighting ===

func TestHighlight(t *testing.T) {
	got := Highlight("abcdef", [][]int{{0, 2}, {4, 6}})
	want := "\033[7mab\033[0mcd\033[7mef\033[0m"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHighlight_NoSpans(t *testing.T) {
	if got := Highlight("plain", nil); got != "plain" {
		t.Errorf("got %q", got)
	}
}
