package upload

import (
	"context"
	"io"

	"github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
)

// Instruction is posted as the user message alongside the uploaded resume.
const Instruction = "Please anonymize this resume by removing personal information while preserving professional details."

const (
	StageConfig       = "config"
	StageUploadFile   = "upload_file"
	StageCreateThread = "create_thread"
	StageAddMessage   = "add_message"
	StageStartRun     = "start_run"
	StagePoll         = "poll"
	StageListMessages = "list_messages"
	StageReadReply    = "read_reply"
)

type File struct {
	Name string
	Body io.Reader
}

type Result struct {
	Text string `json:"text"`
}

// Service runs one uploaded file through the configured assistant.
// Remote resources created along the way are not cleaned up on failure.
type Service struct {
	Assistant   ai.Assistant
	AssistantID func() (string, error)
	Poller      Poller
}

func NewService(assistant ai.Assistant, assistantID func() (string, error), poller Poller) *Service {
	return &Service{Assistant: assistant, AssistantID: assistantID, Poller: poller}
}

func (s *Service) Process(ctx context.Context, f File) (Result, error) {
	assistantID, err := s.AssistantID()
	if err != nil {
		return Result{}, ai.Stage(StageConfig, err)
	}

	fileID, err := s.Assistant.UploadFile(ctx, f.Name, f.Body)
	if err != nil {
		return Result{}, ai.Stage(StageUploadFile, err)
	}

	threadID, err := s.Assistant.CreateThread(ctx)
	if err != nil {
		return Result{}, ai.Stage(StageCreateThread, err)
	}

	if err := s.Assistant.AddMessage(ctx, threadID, Instruction, fileID); err != nil {
		return Result{}, ai.Stage(StageAddMessage, err)
	}

	runID, err := s.Assistant.StartRun(ctx, threadID, assistantID)
	if err != nil {
		return Result{}, ai.Stage(StageStartRun, err)
	}

	status, err := s.Poller.Wait(ctx, func(ctx context.Context) (ai.RunStatus, error) {
		return s.Assistant.RunStatus(ctx, threadID, runID)
	})
	if err != nil {
		return Result{}, ai.Stage(StagePoll, err)
	}
	if status != ai.RunStatusCompleted {
		return Result{}, ai.Stage(StagePoll, &ai.RunFailedError{Status: status})
	}

	messages, err := s.Assistant.ListMessages(ctx, threadID)
	if err != nil {
		return Result{}, ai.Stage(StageListMessages, err)
	}

	text, err := firstAssistantText(messages)
	if err != nil {
		return Result{}, ai.Stage(StageReadReply, err)
	}
	return Result{Text: text}, nil
}

func firstAssistantText(messages []ai.Message) (string, error) {
	for _, m := range messages {
		if m.Role != ai.RoleAssistant {
			continue
		}
		if len(m.Content) == 0 || m.Content[0].Type != ai.ContentTypeText {
			return "", ai.ErrUnexpectedContent
		}
		return m.Content[0].Text, nil
	}
	return "", ai.ErrNoAssistantReply
}
