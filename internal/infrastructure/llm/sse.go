package llm

import (
	"encoding/json"
	"strings"

	"github.com/gamalhq/gamal/internal/domain/service"
)

// streamDecoder incrementally turns an SSE-style "data:" transcript into
// answer text. Reads may split frames at arbitrary byte boundaries: only
// complete lines are interpreted and the unterminated tail is carried into
// the next push, so feeding a transcript in any chunking yields the same
// answer as feeding it whole.
type streamDecoder struct {
	sink   service.StreamSink
	carry  string
	answer strings.Builder
	done   bool
}

func newStreamDecoder(sink service.StreamSink) *streamDecoder {
	return &streamDecoder{sink: sink}
}

// Push consumes one read's worth of bytes and reports whether the
// "data: [DONE]" terminator has been seen.
func (d *streamDecoder) Push(chunk []byte) bool {
	if d.done {
		return true
	}

	lines := strings.Split(d.carry+string(chunk), "\n")
	d.carry = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if d.handleLine(line) {
			d.done = true
			return true
		}
	}
	return false
}

// Finish interprets a final line the stream never terminated. Call once
// after the last push.
func (d *streamDecoder) Finish() {
	if d.done || d.carry == "" {
		return
	}
	line := d.carry
	d.carry = ""
	d.done = d.handleLine(line)
}

func (d *streamDecoder) handleLine(line string) bool {
	switch {
	case strings.HasPrefix(line, ":"):
		// SSE comment, dropped.

	case line == "data: [DONE]":
		return true

	case strings.HasPrefix(line, "data: "):
		var frame streamChunk
		if err := json.Unmarshal([]byte(line[len("data: "):]), &frame); err != nil {
			// Malformed frame, dropped.
			return false
		}
		if len(frame.Choices) > 0 {
			d.emit(frame.Choices[0].Delta.Content)
		}
	}
	return false
}

// emit appends a delta to the answer and forwards it to the sink. Leading
// whitespace is trimmed while the answer is still empty; deltas that vanish
// under the trim (keep-alives, role-only frames) are skipped entirely.
func (d *streamDecoder) emit(delta string) {
	if d.answer.Len() == 0 {
		delta = strings.TrimLeft(delta, " \t\r\n")
	}
	if delta == "" {
		return
	}
	d.answer.WriteString(delta)
	if d.sink != nil {
		d.sink(delta)
	}
}

// Answer returns the text accumulated so far.
func (d *streamDecoder) Answer() string {
	return d.answer.String()
}
