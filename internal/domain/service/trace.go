package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gamalhq/gamal/internal/domain/entity"
)

// Tracker records stage events for one pipeline run. It implements
// Delegates (streaming is ignored) so front-ends chain it with their own
// delegate; the recorded events end up on the history entry for review.
type Tracker struct {
	now    func() time.Time
	events []entity.StageEvent
}

// NewTracker builds a tracker on the wall clock.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// NewTrackerWithClock builds a tracker on an injected clock, for tests.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

func (t *Tracker) EnterStage(name string) {
	t.events = append(t.events, entity.StageEvent{
		Name:      name,
		Timestamp: t.now().UnixMilli(),
	})
}

func (t *Tracker) LeaveStage(name string, fields map[string]string) {
	t.events = append(t.events, entity.StageEvent{
		Name:      name,
		Timestamp: t.now().UnixMilli(),
		Fields:    fields,
	})
}

func (t *Tracker) StreamDelta(string) {}

// Events returns the recorded sequence: enter/leave pairs in pipeline order.
func (t *Tracker) Events() []entity.StageEvent {
	return t.events
}

var _ Delegates = (*Tracker)(nil)

// StageSummary is one completed stage: its name, how long it ran, and the
// fields its leave event carried.
type StageSummary struct {
	Name     string
	Duration time.Duration
	Fields   map[string]string
}

// SimplifyEvents pairs events by adjacent index: event 2i is the enter,
// event 2i+1 the leave. A trailing unmatched enter (aborted run) is dropped.
func SimplifyEvents(events []entity.StageEvent) []StageSummary {
	summaries := make([]StageSummary, 0, len(events)/2)
	for i := 0; i+1 < len(events); i += 2 {
		enter, leave := events[i], events[i+1]
		summaries = append(summaries, StageSummary{
			Name:     enter.Name,
			Duration: time.Duration(leave.Timestamp-enter.Timestamp) * time.Millisecond,
			Fields:   leave.Fields,
		})
	}
	return summaries
}

// RenderReview pretty-prints the stage timeline of a completed exchange:
// one block per stage with its duration and leave fields, then the total.
func RenderReview(entry entity.HistoryEntry) string {
	var b strings.Builder
	for _, s := range SimplifyEvents(entry.Stages) {
		fmt.Fprintf(&b, "%s took %d ms\n", s.Name, s.Duration.Milliseconds())
		keys := make([]string, 0, len(s.Fields))
		for k := range s.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "    %s: %s\n", k, s.Fields[k])
		}
	}
	fmt.Fprintf(&b, "Total %d ms", entry.Duration.Milliseconds())
	return b.String()
}
