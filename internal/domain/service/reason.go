package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

// reasonPrimer is sent as a partial assistant turn so the model completes
// directly into the label grammar instead of chatting.
const reasonPrimer = "TOOL: Google.\nLANGUAGE: "

// replayWindow is how many past exchanges inform a new Reason prompt.
const replayWindow = 3

// reason extracts keyphrases, language, topic, thought and observation from
// the inquiry. Past exchanges are replayed as alternating turns with the
// assistant side serialized through Construct, the observation field set to
// the exchange's final answer, so the model is primed on its own output.
func (p *Pipeline) reason(ctx context.Context, c Context) (Context, error) {
	c.Delegates.EnterStage(StageReason)

	recent := c.History
	if len(recent) > replayWindow {
		recent = recent[len(recent)-replayWindow:]
	}

	system := p.prompts.ReasonSystem()
	if len(recent) == 0 {
		system += "\n\n" + fewShotExample()
	}

	messages := make([]entity.Message, 0, 2*len(recent)+3)
	messages = append(messages, entity.SystemMessage(system))
	for _, entry := range recent {
		messages = append(messages, entity.UserMessage(entry.Inquiry))
		messages = append(messages, entity.AssistantMessage(Construct(map[string]string{
			"thought":     entry.Thought,
			"keyphrases":  entry.Keyphrases,
			"observation": entry.Answer,
			"topic":       entry.Topic,
		})))
	}
	messages = append(messages, entity.UserMessage(c.Inquiry))
	messages = append(messages, entity.AssistantMessage(reasonPrimer))

	fields, err := p.extract(ctx, messages, reasonPrimer)
	if err != nil {
		return c, err
	}

	if fields["keyphrases"] == "" {
		// One retry, re-primed through KEYPHRASES with the thought kept.
		primer := "TOOL: Google.\nTHOUGHT: " + fields["thought"] + "\nKEYPHRASES: "
		messages[len(messages)-1] = entity.AssistantMessage(primer)
		if fields, err = p.extract(ctx, messages, primer); err != nil {
			return c, err
		}
		if fields["keyphrases"] == "" {
			p.log.Warn("proceeding without keyphrases",
				zap.String("inquiry", c.Inquiry),
				zap.Error(apperrors.NewExtractionEmpty("no keyphrases after retry")),
			)
		}
	}

	c.Language = fields["language"]
	c.Topic = fields["topic"]
	c.Thought = fields["thought"]
	c.Keyphrases = fields["keyphrases"]
	c.Observation = fields["observation"]

	c.Delegates.LeaveStage(StageReason, map[string]string{
		"language":    c.Language,
		"topic":       c.Topic,
		"thought":     c.Thought,
		"keyphrases":  c.Keyphrases,
		"observation": c.Observation,
	})
	return c, nil
}

// extract invokes the model without streaming and parses primer+completion.
// A completion that never reached the TOPIC anchor is parsed once more with
// the synthetic fallback line appended.
func (p *Pipeline) extract(ctx context.Context, messages []entity.Message, primer string) (map[string]string, error) {
	completion, err := p.llm.Chat(ctx, messages, nil)
	if err != nil {
		return nil, err
	}

	raw := primer + completion
	fields := Deconstruct(raw)
	if len(fields) == 0 {
		fields = WithTopicFallback(raw)
	}

	p.log.Debug("extracted fields",
		zap.String("keyphrases", fields["keyphrases"]),
		zap.String("language", fields["language"]),
		zap.String("topic", fields["topic"]),
	)
	return fields, nil
}
