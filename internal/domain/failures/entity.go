package failures

import "time"

// Failure is a persisted record of a request that ended in the generic 500.
// It never carries resume text.
type Failure struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Endpoint  string    `json:"endpoint"`        // scrub | upload
	Stage     string    `json:"stage,omitempty"` // upload_file | create_thread | ... | poll | read_reply
	Category  string    `json:"category"`        // config | quota | timeout | canceled | upstream
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
