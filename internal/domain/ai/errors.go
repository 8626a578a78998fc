package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

var (
	ErrMissingAPIKey       = errors.New("provider api key is not configured")
	ErrMissingAssistantID  = errors.New("assistant id is not configured")
	ErrNoChoices           = errors.New("provider returned no completion choices")
	ErrNoAssistantReply    = errors.New("no response from assistant")
	ErrUnexpectedContent   = errors.New("unexpected response type from assistant")
	ErrRunPollingExhausted = errors.New("run polling exhausted")
)

// RunFailedError reports a run that reached a terminal status other than completed.
type RunFailedError struct {
	Status RunStatus
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("run failed with status: %s", e.Status)
}

// StageError tags an error with the processing step it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Stage wraps err with a stage name. nil stays nil.
func Stage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the outermost stage recorded on err, or "".
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Error categories used for logs, metrics and the failure store.
const (
	CategoryConfig   = "config"
	CategoryQuota    = "quota"
	CategoryTimeout  = "timeout"
	CategoryCanceled = "canceled"
	CategoryUpstream = "upstream"
)

// Classify maps err onto one of the Category* values.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrMissingAssistantID):
		return CategoryConfig
	case errors.Is(err, ErrQuotaExceeded):
		return CategoryQuota
	case errors.Is(err, ErrRunPollingExhausted), errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	}
	return CategoryUpstream
}
