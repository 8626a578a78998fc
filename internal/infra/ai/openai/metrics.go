package openai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opChatCompletion = "chat_completion"
	opUploadFile     = "upload_file"
	opCreateThread   = "create_thread"
	opAddMessage     = "add_message"
	opStartRun       = "start_run"
	opRetrieveRun    = "retrieve_run"
	opListMessages   = "list_messages"
)

var providerCalls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "scrubber",
		Subsystem: "openai",
		Name:      "calls_total",
		Help:      "Provider API calls by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerCalls.WithLabelValues(op, outcome).Inc()
}
