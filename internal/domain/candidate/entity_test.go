package candidate

import (
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

type fixedSource int

func (f fixedSource) IntN(n int) int { return int(f) % n }

func TestNewID_SixDigits(t *testing.T) {
	src := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		id := NewID(src)
		assert.Regexp(t, sixDigits, id)
	}
	assert.Regexp(t, sixDigits, NewID(DefaultIDSource))
}

func TestNewID_Bounds(t *testing.T) {
	assert.Equal(t, "100000", NewID(fixedSource(0)))
	assert.Equal(t, "999999", NewID(fixedSource(899999)))
}

func TestNew(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := New("123456", "job-1", "John Doe, Acme", "[NAME], [COMPANY]", now)

	assert.Equal(t, "123456", c.ID)
	assert.Equal(t, "job-1", c.JobID)
	assert.Equal(t, "John Doe, Acme", c.OriginalText)
	assert.Equal(t, "[NAME], [COMPANY]", c.ScrubbedText)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}
