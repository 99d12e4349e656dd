// Package validation provides functionality for validating webhook signatures to verify request authenticity.
package validation

import (
	"strings"

	"github.com/google/go-github/v84/github"
	"github.com/pkg/errors"
)

// SignaturePrefix is the only accepted algorithm prefix of the signature header value.
const SignaturePrefix = "sha256="

var (
	// ErrMissingSignature is returned when the request carries no signature header.
	ErrMissingSignature = errors.New("missing signature")
	// ErrInvalidSignature is returned for every signature that does not verify, whatever the cause.
	ErrInvalidSignature = errors.New("invalid signature")
)

// WebhookSecret represents a secret used to validate webhook signatures for verifying request authenticity.
type WebhookSecret string

// NewWebhookSecret creates a new WebhookSecret instance from the provided secret string and returns its address.
func NewWebhookSecret(secret string) *WebhookSecret {
	s := WebhookSecret(secret)
	return &s
}

// ValidateSignature checks a "sha256=<hex>" signature against the HMAC-SHA256 of body.
// All failures wrap ErrInvalidSignature; the wrapped message carries the detail for logs only.
func (s *WebhookSecret) ValidateSignature(body []byte, signature string) error {
	if s == nil || len(*s) == 0 {
		return errors.Wrap(ErrInvalidSignature, "missing webhook secret")
	}
	if !strings.HasPrefix(signature, SignaturePrefix) {
		return errors.Wrap(ErrInvalidSignature, "signature does not start with "+SignaturePrefix)
	}
	if err := github.ValidateSignature(signature, body, []byte(*s)); err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return nil
}
