package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage names as they appear in events and reviews.
const (
	StageReason  = "Reason"
	StageSearch  = "Search"
	StageRespond = "Respond"
)

// Pipeline runs one inquiry through Reason, Search and Respond. It holds no
// per-run state; everything an invocation accumulates lives on the Context.
type Pipeline struct {
	llm     ChatClient
	search  Searcher
	prompts PromptSource
	log     *zap.Logger
}

// NewPipeline wires the pipeline. A nil prompts falls back to the built-in
// templates; a nil logger is replaced with a no-op one.
func NewPipeline(llm ChatClient, search Searcher, prompts PromptSource, log *zap.Logger) *Pipeline {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		llm:     llm,
		search:  search,
		prompts: prompts,
		log:     log,
	}
}

type stageFn func(ctx context.Context, c Context) (Context, error)

// Run drives the stages left to right, each receiving the context the
// previous stage returned. The first failing stage aborts the run; events
// already recorded by the delegates stay available for post-mortem review.
func (p *Pipeline) Run(ctx context.Context, c Context) (Context, error) {
	log := p.log.With(zap.String("run", uuid.NewString()[:8]))
	log.Debug("pipeline start",
		zap.String("inquiry", c.Inquiry),
		zap.Int("history", len(c.History)),
	)

	for _, stage := range []stageFn{p.reason, p.searchStage, p.respond} {
		var err error
		if c, err = stage(ctx, c); err != nil {
			log.Debug("pipeline aborted", zap.Error(err))
			return c, err
		}
	}

	log.Debug("pipeline done",
		zap.String("topic", c.Topic),
		zap.Int("references", len(c.References)),
		zap.Int("answer_len", len(c.Answer)),
	)
	return c, nil
}

// searchStage resolves the extracted keyphrases into references.
func (p *Pipeline) searchStage(ctx context.Context, c Context) (Context, error) {
	c.Delegates.EnterStage(StageSearch)

	refs, err := p.search.Search(ctx, c.Keyphrases)
	if err != nil {
		return c, err
	}
	c.References = refs

	c.Delegates.LeaveStage(StageSearch, map[string]string{
		"keyphrases": c.Keyphrases,
		"results":    strconv.Itoa(len(refs)),
	})
	return c, nil
}
