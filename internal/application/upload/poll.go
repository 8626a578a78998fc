package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/resume-scrubber/internal/application"
	"github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
)

// Poller reads a run status until it is terminal.
// The first read is immediate; each further read follows a sleep of Interval.
// MaxAttempts caps the number of reads and Timeout caps the total wait; zero disables either.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

func (p Poller) Wait(ctx context.Context, read func(context.Context) (ai.RunStatus, error)) (ai.RunStatus, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = application.Sleep
	}

	for attempt := 1; ; attempt++ {
		status, err := read(ctx)
		if err != nil {
			return "", err
		}
		if status.Terminal() {
			return status, nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return status, fmt.Errorf("%w: still %s after %d status reads", ai.ErrRunPollingExhausted, status, attempt)
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return status, fmt.Errorf("waiting on run (last status %s): %w", status, err)
		}
	}
}
