package payments

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte, secret string, at time.Time) string {
	t.Helper()
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func eventPayload() []byte {
	return []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","status":"active"}}}`)
}

func TestVerifyAcceptsProperlySignedPayload(t *testing.T) {
	v := NewStripeVerifier(testSecret)
	payload := eventPayload()

	event, err := v.Verify(payload, signedHeader(t, payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "customer.subscription.updated", string(event.Type))
	assert.JSONEq(t, `{"id":"sub_1","status":"active"}`, string(event.Data.Raw))
}

func TestVerifyAcceptsForeignAPIVersion(t *testing.T) {
	v := NewStripeVerifier(testSecret)
	// Accounts pin their own API version; the signature, not the version,
	// decides authenticity.
	payload := []byte(`{"id":"evt_2","api_version":"2023-10-16","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1"}}}`)

	event, err := v.Verify(payload, signedHeader(t, payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_2", event.ID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewStripeVerifier(testSecret)
	payload := eventPayload()

	_, err := v.Verify(payload, signedHeader(t, payload, "whsec_other", time.Now()))
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	v := NewStripeVerifier(testSecret)
	payload := eventPayload()
	header := signedHeader(t, payload, testSecret, time.Now())

	tampered := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","status":"canceled"}}}`)
	_, err := v.Verify(tampered, header)
	assert.Error(t, err)
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	v := NewStripeVerifier(testSecret)
	payload := eventPayload()

	// Older than the default tolerance window.
	stale := time.Now().Add(-time.Hour)
	_, err := v.Verify(payload, signedHeader(t, payload, testSecret, stale))
	assert.Error(t, err)
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	v := NewStripeVerifier(testSecret)

	_, err := v.Verify(eventPayload(), "")
	assert.Error(t, err)
}
