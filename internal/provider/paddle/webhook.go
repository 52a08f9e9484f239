package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// VerifyWebhook checks the Paddle-Signature header and extracts the
// normalized envelope. The header carries `ts=<unix>;h1=<hex>` and the
// signature is HMAC-SHA256 over "<ts>:<body>".
func (p *Provider) VerifyWebhook(payload []byte, signature string) (*types.NormalizedEvent, error) {
	ts, h1, err := parseSignatureHeader(signature)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(h1)) {
		p.logger.Errorw("paddle webhook signature mismatch")
		return nil, ierr.NewError("signature mismatch").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrWebhookValidationFailed)
	}

	var event paddleWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed webhook payload").
			Mark(ierr.ErrWebhookValidationFailed)
	}
	if event.EventID == "" || event.EventType == "" {
		return nil, ierr.NewError("missing event_id or event_type").
			WithHint("Malformed webhook payload").
			Mark(ierr.ErrWebhookValidationFailed)
	}

	return &types.NormalizedEvent{
		ID:      event.EventID,
		Type:    event.EventType,
		Payload: event.Data,
	}, nil
}

func parseSignatureHeader(signature string) (ts, h1 string, err error) {
	if signature == "" {
		return "", "", ierr.NewError("missing signature header").
			WithHint("Paddle-Signature header is required").
			Mark(ierr.ErrWebhookValidationFailed)
	}

	for _, part := range strings.Split(signature, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "h1":
			h1 = value
		}
	}
	if ts == "" || h1 == "" {
		return "", "", ierr.NewError("malformed signature header").
			WithHint("Paddle-Signature header must carry ts and h1").
			Mark(ierr.ErrWebhookValidationFailed)
	}
	return ts, h1, nil
}
