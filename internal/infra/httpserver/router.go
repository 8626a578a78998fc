package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appscrub "github.com/bryanwahyu/resume-scrubber/internal/application/scrub"
	appupload "github.com/bryanwahyu/resume-scrubber/internal/application/upload"
	domai "github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
	domfail "github.com/bryanwahyu/resume-scrubber/internal/domain/failures"
	"github.com/bryanwahyu/resume-scrubber/internal/middleware"
)

// Response bodies are part of the public contract.
const (
	msgScrubInputRequired = "Text and job ID are required"
	msgNoFile             = "No file provided"
	msgFileTooLarge       = "File too large"
	msgProcessingFailed   = "Failed to process the file"
)

const (
	endpointScrub  = "scrub"
	endpointUpload = "upload"

	categoryInput = "input"
)

const defaultMaxUploadBytes = 10 << 20

type Options struct {
	Logger         *log.Logger
	Failures       domfail.Repository // nil disables the failure log
	MaxUploadBytes int64
	CORSOrigins    []string
	APIKeys        map[string]string
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	HealthCheckers map[string]middleware.HealthChecker
	Credentials    middleware.MissingCredentials
}

type Router struct {
	scrubSvc  *appscrub.Service
	uploadSvc *appupload.Service
	failures  domfail.Repository
	logger    *log.Logger
	maxUpload int64
}

func NewRouter(scrubSvc *appscrub.Service, uploadSvc *appupload.Service, opts Options) http.Handler {
	r := &Router{
		scrubSvc:  scrubSvc,
		uploadSvc: uploadSvc,
		failures:  opts.Failures,
		logger:    opts.Logger,
		maxUpload: opts.MaxUploadBytes,
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUploadBytes
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(r.logger))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimit(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Credentials, opts.HealthCheckers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Post("/scrub", r.wrap(endpointScrub, r.handleScrub))
	mux.Post("/upload", r.wrap(endpointUpload, r.handleUpload))
	// stored messages carry upstream error text, so the log is only served behind auth
	if FailuresExposed(opts) {
		mux.Get("/failures", r.handleFailures)
	} else {
		mux.Get("/failures", func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "failure log is not available")
		})
	}

	// legacy route names kept for the browser client
	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/scrubber", r.wrap(endpointScrub, r.handleScrub))
		rt.Post("/upload", r.wrap(endpointUpload, r.handleUpload))
	})

	return mux
}

// FailuresExposed reports whether GET /failures serves records: it needs a
// failure store and at least one API key.
func FailuresExposed(opts Options) bool {
	return opts.Failures != nil && len(opts.APIKeys) > 0
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// clientError is answered with its status and message verbatim.
type clientError struct {
	status int
	msg    string
}

func (e *clientError) Error() string { return e.msg }

func badRequest(msg string) error { return &clientError{status: http.StatusBadRequest, msg: msg} }

// inputError marks request decoding failures; they still get the generic 500.
type inputError struct{ err error }

func (e *inputError) Error() string { return "decode request: " + e.err.Error() }

func (e *inputError) Unwrap() error { return e.err }

// wrap answers client errors with their message and collapses everything
// else into the generic failure body. The cause is only logged.
func (r *Router) wrap(endpoint string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var ce *clientError
		if errors.As(err, &ce) {
			writeError(w, ce.status, ce.msg)
			return
		}
		r.recordFailure(req, endpoint, err)
		writeError(w, http.StatusInternalServerError, msgProcessingFailed)
	}
}

func (r *Router) recordFailure(req *http.Request, endpoint string, err error) {
	category := domai.Classify(err)
	var ie *inputError
	if errors.As(err, &ie) {
		category = categoryInput
	}
	stage := domai.StageOf(err)
	reqID := chimw.GetReqID(req.Context())

	r.logger.Error("Error processing file",
		"endpoint", endpoint,
		"stage", stage,
		"category", category,
		"request_id", reqID,
		"err", err,
	)
	middleware.ObserveFailure(endpoint, category)

	if r.failures == nil {
		return
	}
	// the request context may already be cancelled; the record should still land
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), 2*time.Second)
	defer cancel()
	f := &domfail.Failure{
		RequestID: reqID,
		Endpoint:  endpoint,
		Stage:     stage,
		Category:  category,
		Message:   err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if saveErr := r.failures.Save(ctx, f); saveErr != nil {
		r.logger.Warn("failed to record failure", "request_id", reqID, "err", saveErr)
	}
}

// POST /scrub
// Body: {"text": "<resume text>", "jobId": "<id>"}
func (r *Router) handleScrub(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text  string `json:"text"`
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &inputError{err: err}
	}

	c, err := r.scrubSvc.Scrub(req.Context(), appscrub.Command{Text: body.Text, JobID: body.JobID})
	if errors.Is(err, appscrub.ErrMissingInput) {
		return badRequest(msgScrubInputRequired)
	}
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]any{"candidate": c})
}

// POST /upload
// Body: multipart form with a "file" field.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)

	// a urlencoded form cannot carry a file; only a malformed one is a failure
	if isURLEncoded(req) {
		if err := req.ParseForm(); err != nil {
			return formError(err)
		}
		return badRequest(msgNoFile)
	}

	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		return formError(err)
	}
	defer req.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return badRequest(msgNoFile)
	}
	if err != nil {
		return &inputError{err: err}
	}
	defer file.Close()

	res, err := r.uploadSvc.Process(req.Context(), appupload.File{
		Name: middleware.SanitizeFilename(header.Filename),
		Body: file,
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, res)
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &clientError{status: http.StatusRequestEntityTooLarge, msg: msgFileTooLarge}
	}
	return &inputError{err: err}
}

func isURLEncoded(req *http.Request) bool {
	mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// GET /failures?limit=20
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.failures.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		r.logger.Error("list failures", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list failures")
		return
	}
	if list == nil {
		list = []*domfail.Failure{}
	}
	_ = writeJSON(w, http.StatusOK, map[string]any{"failures": list})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
