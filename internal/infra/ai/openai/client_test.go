package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
)

func staticKey(key string) func() (string, error) {
	return func() (string, error) { return key, nil }
}

func newTestClient(t *testing.T, h http.Handler, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL + "/v1"
	return NewClient(staticKey("sk-test"), opts, log.New(io.Discard))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func TestScrub_SendsFixedRequest(t *testing.T) {
	providerCalls.Reset()

	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, chatReply("[NAME], Backend Engineer"))
	})
	c := newTestClient(t, mux, Options{Temperature: 0.3})

	out, err := c.Scrub(context.Background(), "Jane Doe, Backend Engineer")
	require.NoError(t, err)
	assert.Equal(t, "[NAME], Backend Engineer", out)

	assert.Equal(t, "gpt-4", got["model"])
	assert.InDelta(t, 0.3, got["temperature"], 0.0001)
	assert.EqualValues(t, 2000, got["max_tokens"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	system := msgs[0].(map[string]any)
	user := msgs[1].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "Here is the text to process:\nJane Doe, Backend Engineer")

	assert.Equal(t, float64(1), testutil.ToFloat64(providerCalls.WithLabelValues(opChatCompletion, "ok")))
}

func TestScrub_ReasoningModelUsesCompletionTokens(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, chatReply("ok"))
	})
	c := newTestClient(t, mux, Options{Model: "o3-mini", Temperature: 0.3, MaxTokens: 500})

	_, err := c.Scrub(context.Background(), "text")
	require.NoError(t, err)
	assert.EqualValues(t, 500, got["max_completion_tokens"])
	assert.NotContains(t, got, "max_tokens")
	assert.NotContains(t, got, "temperature")
}

func TestScrub_EmptyContentIsReturnedAsIs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, chatReply(""))
	})
	c := newTestClient(t, mux, Options{})

	out, err := c.Scrub(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestScrub_NoChoices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}})
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.Scrub(context.Background(), "text")
	assert.ErrorIs(t, err, domai.ErrNoChoices)
}

func TestScrub_RateLimitedMapsToQuota(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.Scrub(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
	assert.Equal(t, domai.CategoryQuota, domai.Classify(err))
}

func TestClient_MissingKeyFailsPerCall(t *testing.T) {
	calls := 0
	key := ""
	keyFn := func() (string, error) {
		calls++
		if key == "" {
			return "", domai.ErrMissingAPIKey
		}
		return key, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, chatReply("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(keyFn, Options{BaseURL: srv.URL + "/v1"}, log.New(io.Discard))

	_, err := c.Scrub(context.Background(), "text")
	assert.ErrorIs(t, err, domai.ErrMissingAPIKey)
	_, err = c.CreateThread(context.Background())
	assert.ErrorIs(t, err, domai.ErrMissingAPIKey)
	assert.Equal(t, 2, calls)

	key = "sk-late"
	_, err = c.Scrub(context.Background(), "text")
	require.NoError(t, err)
	_, err = c.Scrub(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "key is read until the client is cached")
}

func TestClient_ConcurrentInitReturnsOneClient(t *testing.T) {
	c := NewClient(staticKey("sk"), Options{}, log.New(io.Discard))

	var wg sync.WaitGroup
	got := make([]any, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			api, err := c.client()
			assert.NoError(t, err)
			got[i] = api
		}(i)
	}
	wg.Wait()
	for _, api := range got {
		assert.Same(t, got[0], api)
	}
}

func TestProviderCallsRegistered(t *testing.T) {
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, prometheus.Register(providerCalls), &already)
}
