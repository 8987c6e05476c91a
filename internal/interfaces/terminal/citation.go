package terminal

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// citationToken is the fixed-width marker the model emits; exactly one digit
// is supported. The rewriter holds back three token widths so a marker split
// across stream chunks is always reassembled before anything is written.
const (
	citationToken = "[citation:x]"
	lookahead     = 3 * len(citationToken)
)

var citationPattern = regexp.MustCompile(`\[citation:(\d)\]`)

// Rewriter renumbers [citation:N] markers densely by first appearance and
// forwards the rewritten text to out. Feed stream deltas with Push; end the
// stream with Flush.
type Rewriter struct {
	out  io.Writer
	buf  string
	refs []int
}

// NewRewriter builds a rewriter for one streamed answer.
func NewRewriter(out io.Writer) *Rewriter {
	return &Rewriter{out: out}
}

// Push appends a delta, rewrites every complete marker in the buffer, and
// emits everything but the trailing lookahead window.
func (w *Rewriter) Push(delta string) {
	w.buf += delta
	w.rewrite()
	if len(w.buf) > lookahead {
		cut := len(w.buf) - lookahead
		fmt.Fprint(w.out, w.buf[:cut])
		w.buf = w.buf[cut:]
	}
}

// Flush emits the retained buffer, right-trimmed, and resets it.
func (w *Rewriter) Flush() {
	if rest := strings.TrimRight(w.buf, " \t\r\n"); rest != "" {
		fmt.Fprint(w.out, rest)
	}
	w.buf = ""
}

// Refs returns the original citation numbers in order of first appearance:
// the marker rewritten to [k] cited the reference numbered Refs()[k-1].
func (w *Rewriter) Refs() []int {
	return w.refs
}

func (w *Rewriter) rewrite() {
	for {
		m := citationPattern.FindStringSubmatchIndex(w.buf)
		if m == nil {
			return
		}
		n := int(w.buf[m[2]] - '0')
		w.buf = w.buf[:m[0]] + "[" + strconv.Itoa(w.refIndex(n)) + "]" + w.buf[m[1]:]
	}
}

// refIndex returns the dense 1-based number for a citation, registering it
// on first sight.
func (w *Rewriter) refIndex(n int) int {
	for i, ref := range w.refs {
		if ref == n {
			return i + 1
		}
	}
	w.refs = append(w.refs, n)
	return len(w.refs)
}
