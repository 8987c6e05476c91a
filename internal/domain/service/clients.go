package service

import (
	"context"

	"github.com/gamalhq/gamal/internal/domain/entity"
)

// StreamSink receives answer fragments in the order the model produced
// them. A nil sink means the caller has no streaming interest.
type StreamSink func(delta string)

// ChatClient is the chat-completions endpoint as the stages see it. Chat
// returns the full assistant text; with a non-nil sink (and streaming
// enabled) every fragment is also delivered incrementally.
type ChatClient interface {
	Chat(ctx context.Context, messages []entity.Message, sink StreamSink) (string, error)
}

// Searcher resolves keyphrases into numbered references. An empty result
// with a nil error means the search ran out of hits, not out of luck with
// the endpoint; the pipeline degrades instead of aborting.
type Searcher interface {
	Search(ctx context.Context, keyphrases string) ([]entity.Reference, error)
}
