package shopify

import (
	"errors"
	"testing"

	"shopify-sync-engine/internal/domain"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	verifier := NewWebhookVerifier("shared-secret")
	payload := []byte(`{"id":123,"email":"jo@example.com"}`)

	if err := verifier.Verify(payload, verifier.Sign(payload)); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	verifier := NewWebhookVerifier("shared-secret")
	payload := []byte(`{"id":123}`)
	signature := verifier.Sign(payload)

	err := verifier.Verify([]byte(`{"id":124}`), signature)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":123}`)
	signature := NewWebhookVerifier("other-secret").Sign(payload)

	err := NewWebhookVerifier("shared-secret").Verify(payload, signature)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	err := NewWebhookVerifier("shared-secret").Verify([]byte(`{}`), "")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}
