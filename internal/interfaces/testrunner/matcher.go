package testrunner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Expectation is a conjunction of case-insensitive regex probes compiled
// from an expected string. Bodies between /…/ fences become one probe each;
// a string without fences is one probe as a whole.
type Expectation struct {
	raw      string
	patterns []*regexp.Regexp
}

// CompileExpectation parses the fence syntax. A backslash-escaped slash
// inside a fence is a literal slash, not a delimiter.
func CompileExpectation(expected string) (*Expectation, error) {
	bodies := splitFences(expected)
	if len(bodies) == 0 {
		bodies = []string{expected}
	}

	e := &Expectation{raw: expected}
	for _, body := range bodies {
		re, err := regexp.Compile("(?i)" + body)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", body, err)
		}
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

// String returns the original expected string.
func (e *Expectation) String() string {
	return e.raw
}

// Match reports whether every probe matches target at least once, along
// with the spans of all matches for highlighting.
func (e *Expectation) Match(target string) (bool, [][]int) {
	ok := true
	var spans [][]int
	for _, re := range e.patterns {
		found := re.FindAllStringIndex(target, -1)
		if len(found) == 0 {
			ok = false
			continue
		}
		spans = append(spans, found...)
	}
	return ok, spans
}

// splitFences extracts the fenced bodies from the expected string. Text
// outside fences is ignored; an unclosed trailing fence is dropped.
func splitFences(s string) []string {
	var bodies []string
	var cur strings.Builder
	inside := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '/' {
			if inside {
				cur.WriteByte('/')
			}
			i++
			continue
		}
		if c == '/' {
			if inside {
				bodies = append(bodies, cur.String())
				cur.Reset()
			}
			inside = !inside
			continue
		}
		if inside {
			cur.WriteByte(c)
		}
	}
	return bodies
}

// ANSI inverse video for matched spans.
const (
	highlightOn  = "\033[7m"
	highlightOff = "\033[0m"
)

// Highlight wraps each span of target in ANSI highlight codes. Splicing runs
// right to left so earlier offsets stay valid.
func Highlight(target string, spans [][]int) string {
	sorted := make([][]int, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i][0] > sorted[j][0] })

	out := target
	for _, span := range sorted {
		start, end := span[0], span[1]
		out = out[:start] + highlightOn + out[start:end] + highlightOff + out[end:]
	}
	return out
}
