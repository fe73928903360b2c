package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/arcanaland/gridsmith/internal/logging"
)

// Completion sends the system and user prompts together in one chat
// completion request.
type Completion struct {
	model llms.Model
	log   logging.Logger
}

func NewCompletion(model llms.Model, log logging.Logger) *Completion {
	if log == nil {
		log = logging.Discard()
	}
	return &Completion{model: model, log: log}
}

func (c *Completion) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.User))

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}
	text := resp.Choices[0].Content
	c.log.Debug("completion received", "chars", len(text))
	return text, nil
}
