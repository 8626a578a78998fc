package ai

import (
	"context"
	"io"
)

// RunStatus is the provider-side status of an assistant run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Terminal reports whether polling should stop. Only queued and in_progress
// are non-terminal; unknown values are terminal.
func (s RunStatus) Terminal() bool {
	return s != RunStatusQueued && s != RunStatusInProgress
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	ContentTypeText = "text"
)

type Content struct {
	Type string
	Text string
}

type Message struct {
	Role    string
	Content []Content
}

// Scrubber anonymizes text with a single chat completion.
type Scrubber interface {
	Scrub(ctx context.Context, text string) (string, error)
}

// Assistant is the thread/run workflow of the provider.
type Assistant interface {
	UploadFile(ctx context.Context, name string, r io.Reader) (fileID string, err error)
	CreateThread(ctx context.Context) (threadID string, err error)
	AddMessage(ctx context.Context, threadID, content, fileID string) error
	StartRun(ctx context.Context, threadID, assistantID string) (runID string, err error)
	RunStatus(ctx context.Context, threadID, runID string) (RunStatus, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
