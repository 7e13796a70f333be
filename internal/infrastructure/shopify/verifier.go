package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"shopify-sync-engine/internal/domain"
)

// WebhookVerifier checks the HMAC-SHA256 signature the platform attaches
// to every webhook delivery.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify computes the keyed hash over the raw request body and compares
// it against the header-supplied signature in constant time.
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	if !hmac.Equal([]byte(v.Sign(payload)), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Sign returns the base64 HMAC-SHA256 signature for a payload.
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
