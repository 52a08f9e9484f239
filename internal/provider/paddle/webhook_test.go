package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/logger"
)

const testWebhookSecret = "whsec_test"

func testProvider() *Provider {
	return &Provider{
		webhookSecret: testWebhookSecret,
		logger:        logger.NewNopLogger(),
	}
}

func sign(t *testing.T, ts string, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(payload)
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookAcceptsValidSignature(t *testing.T) {
	p := testProvider()
	payload := []byte(`{"event_id":"evt_1","event_type":"subscription.created","data":{"id":"sub_1"}}`)

	ev, err := p.VerifyWebhook(payload, sign(t, "1700000000", payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "subscription.created", ev.Type)
	assert.JSONEq(t, `{"id":"sub_1"}`, string(ev.Payload))
}

func TestVerifyWebhookRejectsTamperedPayload(t *testing.T) {
	p := testProvider()
	payload := []byte(`{"event_id":"evt_1","event_type":"subscription.created","data":{}}`)
	signature := sign(t, "1700000000", payload)

	tampered := []byte(`{"event_id":"evt_1","event_type":"subscription.canceled","data":{}}`)
	_, err := p.VerifyWebhook(tampered, signature)
	require.Error(t, err)
	assert.True(t, ierr.IsWebhookValidationFailed(err))
}

func TestVerifyWebhookRejectsWrongSecret(t *testing.T) {
	p := testProvider()
	payload := []byte(`{"event_id":"evt_1","event_type":"subscription.created","data":{}}`)

	mac := hmac.New(sha256.New, []byte("other_secret"))
	mac.Write([]byte("1700000000:"))
	mac.Write(payload)
	signature := "ts=1700000000;h1=" + hex.EncodeToString(mac.Sum(nil))

	_, err := p.VerifyWebhook(payload, signature)
	require.Error(t, err)
	assert.True(t, ierr.IsWebhookValidationFailed(err))
}

func TestVerifyWebhookRejectsMalformedHeader(t *testing.T) {
	p := testProvider()
	payload := []byte(`{"event_id":"evt_1","event_type":"subscription.created","data":{}}`)

	for _, signature := range []string{"", "ts=123", "h1=abc", "garbage"} {
		_, err := p.VerifyWebhook(payload, signature)
		require.Error(t, err, "signature %q must be rejected", signature)
		assert.True(t, ierr.IsWebhookValidationFailed(err))
	}
}

func TestVerifyWebhookRejectsMissingEventFields(t *testing.T) {
	p := testProvider()
	payload := []byte(`{"data":{"id":"sub_1"}}`)

	_, err := p.VerifyWebhook(payload, sign(t, "1700000000", payload))
	require.Error(t, err)
	assert.True(t, ierr.IsWebhookValidationFailed(err))
}
