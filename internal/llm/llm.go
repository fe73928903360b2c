// Package llm sends prompts to an OpenAI-compatible text service. Two
// transports are available: a single chat completion round trip, and the
// assistant/thread/run protocol that creates a throwaway assistant per call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/arcanaland/gridsmith/internal/logging"
)

// ErrGenerationFailed wraps any failure to obtain text from the service.
var ErrGenerationFailed = errors.New("generation failed")

type Mode string

const (
	ModeCompletion Mode = "completion"
	ModeAssistant  Mode = "assistant"
)

const (
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultModel         = "gpt-4o-mini"
	DefaultAssistantName = "GridStrike Card Generator"
	DefaultPollInterval  = time.Second
	DefaultMaxPolls      = 120
)

// Request is one prompt. System carries the rules and context; User carries
// the instruction.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Transport turns a Request into the model's raw reply text.
type Transport interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Options struct {
	Mode          Mode
	Model         string
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryCount    int
	PollInterval  time.Duration
	MaxPolls      uint64
	AssistantName string
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeCompletion
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPolls == 0 {
		o.MaxPolls = DefaultMaxPolls
	}
	if o.AssistantName == "" {
		o.AssistantName = DefaultAssistantName
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

// New builds the transport selected by opts.Mode.
func New(opts Options, log logging.Logger) (Transport, error) {
	opts = opts.withDefaults()
	if opts.APIKey == "" {
		return nil, errors.New("api key is required (set llm.api_key or OPENAI_API_KEY)")
	}
	switch opts.Mode {
	case ModeCompletion:
		model, err := openai.New(
			openai.WithToken(opts.APIKey),
			openai.WithModel(opts.Model),
			openai.WithBaseURL(opts.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("create completion model: %w", err)
		}
		return NewCompletion(model, log), nil
	case ModeAssistant:
		return NewAssistant(opts, log), nil
	default:
		return nil, fmt.Errorf("unknown llm mode %q (want %s or %s)", opts.Mode, ModeCompletion, ModeAssistant)
	}
}
