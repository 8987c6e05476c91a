package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
)

// respond synthesizes the cited answer from the references, streaming each
// fragment through the delegates as the model produces it.
func (p *Pipeline) respond(ctx context.Context, c Context) (Context, error) {
	c.Delegates.EnterStage(StageRespond)

	if len(c.References) == 0 {
		// Nothing to ground an answer in. Degrade to an empty answer; the
		// exchange still completes and is recorded.
		p.log.Info("no references to respond from", zap.String("inquiry", c.Inquiry))
		c.Answer = ""
		c.Delegates.LeaveStage(StageRespond, map[string]string{"answer": ""})
		return c, nil
	}

	system := RenderRespondSystem(p.prompts.RespondSystem(), c.Language, c.References)
	messages := []entity.Message{
		entity.SystemMessage(system),
		entity.UserMessage(c.Inquiry),
	}

	answer, err := p.llm.Chat(ctx, messages, c.Delegates.StreamDelta)
	if err != nil {
		return c, err
	}
	c.Answer = answer

	c.Delegates.LeaveStage(StageRespond, map[string]string{"answer": c.Answer})
	return c, nil
}
