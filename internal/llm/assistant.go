package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"

	"github.com/arcanaland/gridsmith/internal/logging"
)

// RunStatus is the lifecycle state of an assistant run.
type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// Pending reports whether the run has not reached a terminal state yet.
func (s RunStatus) Pending() bool {
	return s == RunQueued || s == RunInProgress
}

var errRunPending = errors.New("run pending")

// APIError is a non-2xx reply from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d", e.Status)
	}
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// Assistant runs each request through a fresh assistant: create it, open a
// thread, post the prompt, start a run, poll until the run settles, read the
// newest message, then delete the assistant.
type Assistant struct {
	client       *resty.Client
	model        string
	name         string
	pollInterval time.Duration
	maxPolls     uint64
	log          logging.Logger
}

func NewAssistant(opts Options, log logging.Logger) *Assistant {
	opts = opts.withDefaults()
	if log == nil {
		log = logging.Discard()
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("OpenAI-Beta", "assistants=v2").
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	if opts.RetryCount > 0 {
		client.AddRetryCondition(transientFailure)
	}
	return &Assistant{
		client:       client,
		model:        opts.Model,
		name:         opts.AssistantName,
		pollInterval: opts.PollInterval,
		maxPolls:     opts.MaxPolls,
		log:          log,
	}
}

// transientFailure retries rate limits and server errors only.
func transientFailure(r *resty.Response, err error) bool {
	if err != nil || r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (a *Assistant) Complete(ctx context.Context, req Request) (string, error) {
	assistantID, err := a.createAssistant(ctx, req.System)
	if err != nil {
		return "", fmt.Errorf("%w: create assistant: %w", ErrGenerationFailed, err)
	}
	defer a.deleteAssistant(context.WithoutCancel(ctx), assistantID)

	threadID, err := a.createThread(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: create thread: %w", ErrGenerationFailed, err)
	}
	if err := a.postMessage(ctx, threadID, req.User); err != nil {
		return "", fmt.Errorf("%w: post message: %w", ErrGenerationFailed, err)
	}
	runID, err := a.createRun(ctx, threadID, assistantID, req)
	if err != nil {
		return "", fmt.Errorf("%w: create run: %w", ErrGenerationFailed, err)
	}
	if err := a.waitForRun(ctx, threadID, runID); err != nil {
		return "", err
	}
	text, err := a.latestMessage(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("%w: read messages: %w", ErrGenerationFailed, err)
	}
	return text, nil
}

func (a *Assistant) call(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	r := a.client.R().SetContext(ctx)
	if body != nil {
		r.SetBody(body)
	}
	resp, err := r.Execute(method, path)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.IsError() {
		return gjson.Result{}, &APIError{
			Status:  resp.StatusCode(),
			Message: gjson.GetBytes(resp.Body(), "error.message").String(),
		}
	}
	return gjson.ParseBytes(resp.Body()), nil
}

func (a *Assistant) create(ctx context.Context, path string, body any) (string, error) {
	res, err := a.call(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", err
	}
	id := res.Get("id").String()
	if id == "" {
		return "", fmt.Errorf("no id in response from %s", path)
	}
	return id, nil
}

func (a *Assistant) createAssistant(ctx context.Context, instructions string) (string, error) {
	return a.create(ctx, "/assistants", map[string]any{
		"name":         a.name,
		"instructions": instructions,
		"model":        a.model,
	})
}

func (a *Assistant) createThread(ctx context.Context) (string, error) {
	return a.create(ctx, "/threads", map[string]any{})
}

func (a *Assistant) postMessage(ctx context.Context, threadID, content string) error {
	_, err := a.call(ctx, http.MethodPost, "/threads/"+threadID+"/messages", map[string]any{
		"role":    "user",
		"content": content,
	})
	return err
}

func (a *Assistant) createRun(ctx context.Context, threadID, assistantID string, req Request) (string, error) {
	body := map[string]any{"assistant_id": assistantID}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_completion_tokens"] = req.MaxTokens
	}
	return a.create(ctx, "/threads/"+threadID+"/runs", body)
}

func (a *Assistant) runStatus(ctx context.Context, threadID, runID string) (RunStatus, error) {
	res, err := a.call(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil)
	if err != nil {
		return "", err
	}
	return RunStatus(res.Get("status").String()), nil
}

// waitForRun reads the run status once, then re-reads it every poll interval
// while it is queued or in progress, up to maxPolls times.
func (a *Assistant) waitForRun(ctx context.Context, threadID, runID string) error {
	backoff := retry.WithMaxRetries(a.maxPolls, retry.NewConstant(a.pollInterval))
	var last RunStatus
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, err := a.runStatus(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("%w: get run: %w", ErrGenerationFailed, err)
		}
		last = status
		switch {
		case status == RunCompleted:
			return nil
		case status.Pending():
			a.log.Debug("run pending", "run", runID, "status", status)
			return retry.RetryableError(errRunPending)
		default:
			return fmt.Errorf("%w: run %s ended with status %q", ErrGenerationFailed, runID, status)
		}
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errRunPending):
		return fmt.Errorf("%w: run %s still %q after %d polls", ErrGenerationFailed, runID, last, a.maxPolls)
	case errors.Is(err, ErrGenerationFailed):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
}

// latestMessage returns the text of the newest message on the thread.
func (a *Assistant) latestMessage(ctx context.Context, threadID string) (string, error) {
	res, err := a.call(ctx, http.MethodGet, "/threads/"+threadID+"/messages?order=desc&limit=1", nil)
	if err != nil {
		return "", err
	}
	text := res.Get("data.0.content.0.text.value")
	if !text.Exists() {
		return "", errors.New("thread has no text message")
	}
	return text.String(), nil
}

func (a *Assistant) deleteAssistant(ctx context.Context, id string) {
	if _, err := a.call(ctx, http.MethodDelete, "/assistants/"+id, nil); err != nil {
		a.log.Warn("failed to delete assistant", "assistant", id, "error", err)
	}
}
