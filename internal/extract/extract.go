package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoStructuredContent means the text holds no balanced {...} region.
	ErrNoStructuredContent = errors.New("response did not contain structured content")
	// ErrMalformedResponse means a candidate region was found but did not parse.
	ErrMalformedResponse = errors.New("response contained malformed JSON")
)

// MalformedError carries the candidate that failed to parse.
type MalformedError struct {
	Candidate string
	Err       error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%v: %v (candidate: %s)", ErrMalformedResponse, e.Err, e.Candidate)
}

func (e *MalformedError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

// Structured recovers a JSON object or array from raw model output. Clean
// input is returned unchanged; input wrapped in prose is reduced to the first
// balanced top-level object.
func Structured(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return v, nil
		}
	}

	candidate, ok := balancedObject(text)
	if !ok {
		return nil, ErrNoStructuredContent
	}
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, &MalformedError{Candidate: candidate, Err: err}
	}
	return v, nil
}

// Object is Structured restricted to objects.
func Object(text string) (map[string]any, error) {
	v, err := Structured(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrMalformedResponse, v)
	}
	return obj, nil
}

// balancedObject returns text[start:end+1] where start is the first '{' seen
// at depth zero and end is the '}' that brings depth back to zero.
func balancedObject(text string) (string, bool) {
	depth := 0
	start := -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	quotePair  = regexp.MustCompile(`^["']|["']$`)
	leadHeres  = regexp.MustCompile(`(?i)^Here's?.*?:\s*`)
	leadSure   = regexp.MustCompile(`(?i)^Certainly!?\s*`)
	leadBetter = regexp.MustCompile(`(?i)^The improved.*?is:?\s*`)
	leadLabel  = regexp.MustCompile(`^\w+:\s*`)
)

// CleanField strips the wrapping models put around single-value answers.
// Each filter runs once, in order.
func CleanField(text string) string {
	s := strings.TrimSpace(text)
	s = quotePair.ReplaceAllString(s, "")
	s = leadHeres.ReplaceAllString(s, "")
	s = leadSure.ReplaceAllString(s, "")
	s = leadBetter.ReplaceAllString(s, "")
	s = leadLabel.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
