package scrub

import (
	"context"
	"errors"

	"github.com/bryanwahyu/resume-scrubber/internal/application"
	"github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
	"github.com/bryanwahyu/resume-scrubber/internal/domain/candidate"
)

// ErrMissingInput is returned when text or job id is empty.
var ErrMissingInput = errors.New("text and job id are required")

const StageChatCompletion = "chat_completion"

type Command struct {
	Text  string
	JobID string
}

// Service scrubs raw resume text into a Candidate.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	Scrubber ai.Scrubber
	Clock    application.Clock
	IDs      candidate.IDSource
}

func NewService(scrubber ai.Scrubber) *Service {
	return &Service{
		Scrubber: scrubber,
		Clock:    application.SystemClock{},
		IDs:      candidate.DefaultIDSource,
	}
}

func (s *Service) Scrub(ctx context.Context, cmd Command) (candidate.Candidate, error) {
	if cmd.Text == "" || cmd.JobID == "" {
		return candidate.Candidate{}, ErrMissingInput
	}

	scrubbed, err := s.Scrubber.Scrub(ctx, cmd.Text)
	if err != nil {
		return candidate.Candidate{}, ai.Stage(StageChatCompletion, err)
	}
	if scrubbed == "" {
		scrubbed = cmd.Text
	}

	return candidate.New(candidate.NewID(s.IDs), cmd.JobID, cmd.Text, scrubbed, s.Clock.Now()), nil
}
