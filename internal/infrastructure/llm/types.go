package llm

import (
	"github.com/gamalhq/gamal/internal/domain/entity"
)

// Wire types for the OpenAI-style chat-completions endpoint. Only the
// fields the pipeline reads are declared; everything else is ignored.

// Completion hyperparameters are fixed: answers are short and cited, and
// extraction must be deterministic.
const (
	maxTokens   = 400
	temperature = 0
)

// stopSequences cut the completion off before the model invents the next
// turn. "INQUIRY: " is the user-side marker of the label grammar.
var stopSequences = []string{
	"<|im_end|>",
	"<|end|>",
	"<|eot_id|>",
	"<|end_of_turn|>",
	"INQUIRY: ",
}

type chatRequest struct {
	Messages    []entity.Message `json:"messages"`
	Model       string           `json:"model"`
	Stop        []string         `json:"stop"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
	Stream      bool             `json:"stream"`
}

type chatResponse struct {
	Choices []responseChoice `json:"choices"`
}

type responseChoice struct {
	Message entity.Message `json:"message"`
}

type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta streamDelta `json:"delta"`
}

type streamDelta struct {
	Content string `json:"content"`
}
