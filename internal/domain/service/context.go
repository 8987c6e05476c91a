package service

import (
	"time"

	"github.com/gamalhq/gamal/internal/domain/entity"
)

// Context carries one inquiry through the pipeline. It is passed by value:
// each stage returns a new Context with more fields filled, and callers must
// not rely on in-place mutation.
type Context struct {
	Inquiry   string
	History   []entity.HistoryEntry
	Delegates Delegates

	// Accumulated by the stages.
	Language    string
	Topic       string
	Thought     string
	Keyphrases  string
	Observation string
	References  []entity.Reference
	Answer      string
}

// NewContext builds the starting context for one inquiry. A nil delegates
// defaults to no-ops so stages never have to check.
func NewContext(inquiry string, history []entity.HistoryEntry, delegates Delegates) Context {
	if delegates == nil {
		delegates = NoopDelegates{}
	}
	return Context{
		Inquiry:   inquiry,
		History:   history,
		Delegates: delegates,
	}
}

// Entry converts a completed run into the history record front-ends append.
func (c Context) Entry(duration time.Duration, stages []entity.StageEvent) entity.HistoryEntry {
	return entity.HistoryEntry{
		Inquiry:    c.Inquiry,
		Thought:    c.Thought,
		Keyphrases: c.Keyphrases,
		Topic:      c.Topic,
		References: c.References,
		Answer:     c.Answer,
		Duration:   duration,
		Stages:     stages,
	}
}
