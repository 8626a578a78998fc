package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetClientFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"web": "key-web", "cli": "key-cli"})(okHandler)

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"bearer key", "/scrub", "Bearer key-cli", http.StatusOK, "cli"},
		{"raw key", "/scrub", "key-web", http.StatusOK, "web"},
		{"missing header", "/scrub", "", http.StatusUnauthorized, ""},
		{"wrong key", "/upload", "Bearer nope", http.StatusUnauthorized, ""},
		{"health exempt", "/health", "", http.StatusOK, ""},
		{"metrics exempt", "/metrics", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	h := APIKeyAuth(nil)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scrub", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	defer rl.Stop()
	before := testutil.ToFloat64(rateLimitRejections)
	h := RateLimit(rl)(okHandler)

	send := func(path, addr string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("/scrub", "198.51.100.1:1234"))
	assert.Equal(t, http.StatusOK, send("/scrub", "198.51.100.1:1235"))
	assert.Equal(t, http.StatusTooManyRequests, send("/scrub", "198.51.100.1:1236"))
	assert.Equal(t, http.StatusOK, send("/scrub", "198.51.100.2:1234"), "other callers have their own bucket")
	assert.Equal(t, http.StatusOK, send("/health", "198.51.100.1:1237"), "health is exempt")
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitRejections))

	rl.Stop()
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	rl.evictIdle(time.Now().Add(2 * time.Minute))
	assert.True(t, rl.Allow("a"), "evicted caller starts with a full bucket")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Formatter: log.JSONFormatter})
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scrub", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "/scrub", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.EqualValues(t, 5, line["bytes"])
}

func TestHealthHandler(t *testing.T) {
	up := CheckFunc(func(context.Context) error { return nil })
	down := CheckFunc(func(context.Context) error { return errors.New("dial tcp 10.0.0.5:3306: connection refused") })
	none := func() []string { return nil }

	rec := httptest.NewRecorder()
	HealthHandler(none, map[string]HealthChecker{"database": up})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	missing := func() []string { return []string{"OPENAI_ASSISTANT_ID"} }
	HealthHandler(missing, map[string]HealthChecker{"database": down})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5", "dependency errors are not echoed")

	var report HealthReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, []string{"OPENAI_ASSISTANT_ID"}, report.MissingCredentials)
	assert.Equal(t, map[string]string{"database": "unreachable"}, report.Dependencies)
}

func TestHealthHandler_MissingCredentialsAlone(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(func() []string { return []string{"OPENAI_API_KEY"} }, nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report HealthReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, []string{"OPENAI_API_KEY"}, report.MissingCredentials)
	assert.Empty(t, report.Dependencies)
}

func TestCollectorsRegisteredOnDefaultRegistry(t *testing.T) {
	for _, c := range []prometheus.Collector{requestsTotal, requestDuration, requestsInFlight, failuresTotal, rateLimitRejections} {
		var already prometheus.AlreadyRegisteredError
		assert.ErrorAs(t, prometheus.Register(c), &already)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"cv.pdf":                    "cv.pdf",
		"../../etc/passwd":          "passwd",
		`C:\Users\jane\resume.docx`: "resume.docx",
		"":                          "resume",
		"..":                        "resume",
		"my\x00cv\n.txt":            "mycv.txt",
		"  spaced name.pdf  ":       "spaced name.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeFilename(long)
	assert.Len(t, got, 255)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 5, ValidateLimit(5))
	assert.Equal(t, 100, ValidateLimit(1000))
}
