package settlement

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ladderleague/ladder-api/internal/pkg/gateway"
	"github.com/ladderleague/ladder-api/internal/pkg/response"
)

// WebhookHandler receives asynchronous gateway notices (chargebacks,
// late declines). Charges themselves are synchronous, so the webhook is
// reconciliation input for the operators, not a ledger mutation: a
// disputed charge is resolved by an admin with a correcting record.
type WebhookHandler struct {
	secretKey string
}

func NewWebhookHandler(secretKey string) *WebhookHandler {
	return &WebhookHandler{secretKey: secretKey}
}

type webhookPayload struct {
	ReferenceID  string `json:"reference_id"`
	ExternalTxID string `json:"external_tx_id"`
	Event        string `json:"event"`
	Reason       string `json:"reason,omitempty"`
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}

	signature := r.Header.Get("X-Gateway-Signature")
	if !gateway.VerifySignature(body, signature, h.secretKey) {
		log.Warn().Str("ip", r.RemoteAddr).Msg("gateway webhook with bad signature")
		response.Unauthorized(w, "invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	log.Info().
		Str("reference_id", payload.ReferenceID).
		Str("external_tx_id", payload.ExternalTxID).
		Str("event", payload.Event).
		Str("reason", payload.Reason).
		Msg("gateway webhook received")

	response.OK(w, map[string]string{"status": "received"})
}
