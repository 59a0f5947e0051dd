package voice

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/brightsmile-ai/receptionist/internal/observability/metrics"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// retellToolRequest is Retell's custom-function webhook payload. Arguments
// arrive pre-parsed as an object.
type retellToolRequest struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
	Call struct {
		CallID string `json:"call_id"`
	} `json:"call"`
}

// RetellHandler serves Retell webhooks.
type RetellHandler struct {
	dispatcher *Dispatcher
	calls      CallStore
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
}

// RetellHandlerConfig wires the Retell webhook handler.
type RetellHandlerConfig struct {
	Dispatcher *Dispatcher
	Calls      CallStore
	Logger     *logging.Logger
	Metrics    *metrics.BookingMetrics
}

// NewRetellHandler creates a Retell webhook handler.
func NewRetellHandler(cfg RetellHandlerConfig) *RetellHandler {
	if cfg.Dispatcher == nil {
		panic("voice: dispatcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &RetellHandler{
		dispatcher: cfg.Dispatcher,
		calls:      cfg.Calls,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// HandleToolCall executes a Retell custom function and returns the raw JSON
// result body. Retell relays the response verbatim to the agent, so this
// endpoint always answers 200 with a JSON payload.
func (h *RetellHandler) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("retell", time.Since(start).Seconds())
	}()

	var req retellToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("retell webhook: malformed body", "error", err)
		writeJSON(w, http.StatusOK, json.RawMessage(`{"error":"Invalid request body"}`))
		return
	}

	h.logger.Info("retell tool call", "function", req.Name, "call_id", req.Call.CallID)
	result := h.dispatcher.Dispatch(r.Context(), req.Name, req.Args)
	writeJSON(w, http.StatusOK, result)
}

// retellCallEvent is the post-call lifecycle webhook payload.
type retellCallEvent struct {
	Event string `json:"event"`
	Call  struct {
		CallID         string `json:"call_id"`
		AgentID        string `json:"agent_id"`
		FromNumber     string `json:"from_number"`
		ToNumber       string `json:"to_number"`
		Transcript     string `json:"transcript"`
		StartTimestamp int64  `json:"start_timestamp"`
		EndTimestamp   int64  `json:"end_timestamp"`
		CallAnalysis   struct {
			CallSummary   string `json:"call_summary"`
			UserSentiment string `json:"user_sentiment"`
			CallSuccess   bool   `json:"call_successful"`
		} `json:"call_analysis"`
	} `json:"call"`
}

// HandleCallEvent records analyzed calls. Other lifecycle events are
// acknowledged and ignored.
func (h *RetellHandler) HandleCallEvent(w http.ResponseWriter, r *http.Request) {
	var evt retellCallEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		h.logger.Warn("retell call event: malformed body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if evt.Event != "call_analyzed" || h.calls == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	rec := CallRecord{
		CallID:     evt.Call.CallID,
		AgentID:    evt.Call.AgentID,
		FromNumber: evt.Call.FromNumber,
		ToNumber:   evt.Call.ToNumber,
		Transcript: evt.Call.Transcript,
		Summary:    evt.Call.CallAnalysis.CallSummary,
		Sentiment:  evt.Call.CallAnalysis.UserSentiment,
		Successful: evt.Call.CallAnalysis.CallSuccess,
		DurationMS: evt.Call.EndTimestamp - evt.Call.StartTimestamp,
	}
	if err := h.calls.RecordCall(r.Context(), rec); err != nil {
		h.logger.Error("retell call event: record failed", "error", err, "call_id", rec.CallID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.logger.Info("call analysis recorded", "call_id", rec.CallID, "sentiment", rec.Sentiment)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
