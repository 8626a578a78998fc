package candidate

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// Candidate is the anonymized resume returned to the caller for client-side storage.
type Candidate struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	ScrubbedText string    `json:"scrubbedText"`
	OriginalText string    `json:"originalText"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IDSource draws ids. *rand.Rand from math/rand/v2 satisfies it.
type IDSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultIDSource uses the process-wide generator, safe for concurrent use.
var DefaultIDSource IDSource = globalSource{}

// NewID returns a random 6-digit numeric id. No collision check is made.
func NewID(src IDSource) string {
	return strconv.Itoa(100000 + src.IntN(900000))
}

// New builds a Candidate; both texts are kept verbatim.
func New(id, jobID, original, scrubbed string, now time.Time) Candidate {
	return Candidate{
		ID:           id,
		JobID:        jobID,
		ScrubbedText: scrubbed,
		OriginalText: original,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
