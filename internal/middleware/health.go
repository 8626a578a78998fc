package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	depUnreachable = "unreachable"
)

// HealthChecker probes one backing dependency.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// PingChecker reports a SQL store reachable when it answers a ping.
type PingChecker struct {
	DB *sql.DB
}

func (p *PingChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.DB.PingContext(ctx)
}

// MissingCredentials lists the provider settings that are currently unset.
type MissingCredentials func() []string

// HealthReport is the /health body. Dependency errors are collapsed to
// "unreachable"; only credential names, never values, are reported.
type HealthReport struct {
	Status             string            `json:"status"`
	MissingCredentials []string          `json:"missingCredentials,omitempty"`
	Dependencies       map[string]string `json:"dependencies,omitempty"`
	CheckedAt          time.Time         `json:"checkedAt"`
}

// HealthHandler answers 503 while credentials are missing or a dependency is down.
// The process itself keeps serving; requests fail individually.
func HealthHandler(missing MissingCredentials, deps map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report := HealthReport{Status: healthOK, CheckedAt: time.Now().UTC()}
		if missing != nil {
			report.MissingCredentials = missing()
		}
		if len(report.MissingCredentials) > 0 {
			report.Status = healthDegraded
		}
		if len(deps) > 0 {
			report.Dependencies = make(map[string]string, len(deps))
		}
		for name, dep := range deps {
			if err := dep.Check(ctx); err != nil {
				report.Dependencies[name] = depUnreachable
				report.Status = healthDegraded
				continue
			}
			report.Dependencies[name] = healthOK
		}

		code := http.StatusOK
		if report.Status != healthOK {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	}
}

// ReadinessHandler answers once the router is mounted; provider state is /health's job.
func ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ready":true}`))
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}
