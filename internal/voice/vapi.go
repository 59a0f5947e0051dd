package voice

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/brightsmile-ai/receptionist/internal/observability/metrics"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// vapiRequest is the Vapi server-message envelope. Only tool-call messages
// are acted on.
type vapiRequest struct {
	Message struct {
		Type      string         `json:"type"`
		ToolCalls []vapiToolCall `json:"toolCalls"`
	} `json:"message"`
}

type vapiToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name string `json:"name"`
		// Vapi sends arguments either as a JSON object or as a
		// stringified object depending on the model provider.
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type vapiToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type vapiResponse struct {
	Results []vapiToolResult `json:"results"`
}

// VapiHandler serves Vapi tool-call webhooks.
type VapiHandler struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
}

// NewVapiHandler creates a Vapi webhook handler.
func NewVapiHandler(dispatcher *Dispatcher, logger *logging.Logger, m *metrics.BookingMetrics) *VapiHandler {
	if dispatcher == nil {
		panic("voice: dispatcher is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VapiHandler{dispatcher: dispatcher, logger: logger, metrics: m}
}

// HandleServerMessage executes every tool call in the envelope and answers
// with the results keyed by tool call ID. Non-tool-call messages get a
// plain 200 so Vapi does not retry them.
func (h *VapiHandler) HandleServerMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("vapi", time.Since(start).Seconds())
	}()

	var req vapiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("vapi webhook: malformed body", "error", err)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	if req.Message.Type != "tool-calls" || len(req.Message.ToolCalls) == 0 {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	results := make([]vapiToolResult, 0, len(req.Message.ToolCalls))
	for _, call := range req.Message.ToolCalls {
		args := decodeVapiArguments(call.Function.Arguments)
		h.logger.Info("vapi tool call", "function", call.Function.Name, "tool_call_id", call.ID)
		result := h.dispatcher.Dispatch(r.Context(), call.Function.Name, args)
		results = append(results, vapiToolResult{ToolCallID: call.ID, Result: string(result)})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(vapiResponse{Results: results})
}

// decodeVapiArguments accepts both the object and string-encoded forms.
func decodeVapiArguments(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil {
		return args
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &args); err != nil {
		return nil
	}
	return args
}
