package voice

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brightsmile-ai/receptionist/internal/voice/retellclient"
	"github.com/brightsmile-ai/receptionist/pkg/logging"
)

// WebCallClient provisions browser call sessions with the voice provider.
type WebCallClient interface {
	CreateWebCall(ctx context.Context, req retellclient.CreateWebCallRequest) (*retellclient.WebCall, error)
}

// WebCallHandler lets the clinic's website start a voice session without
// exposing the provider API key to the browser.
type WebCallHandler struct {
	client  WebCallClient
	agentID string
	logger  *logging.Logger
}

// NewWebCallHandler creates the web call handler. A nil client disables the
// endpoint.
func NewWebCallHandler(client WebCallClient, agentID string, logger *logging.Logger) *WebCallHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebCallHandler{client: client, agentID: agentID, logger: logger}
}

// HandleCreateWebCall provisions a session and returns its access token.
func (h *WebCallHandler) HandleCreateWebCall(w http.ResponseWriter, r *http.Request) {
	if h.client == nil || h.agentID == "" {
		http.Error(w, "voice provider not configured", http.StatusServiceUnavailable)
		return
	}

	agentID := h.agentID
	if override := r.URL.Query().Get("agent_id"); override != "" {
		agentID = override
	}

	call, err := h.client.CreateWebCall(r.Context(), retellclient.CreateWebCallRequest{AgentID: agentID})
	if err != nil {
		h.logger.Error("create web call failed", "error", err, "agent_id", agentID)
		http.Error(w, "failed to create web call", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(call)
}
