package handler

import (
	"log/slog"

	"github.com/isometry/gh-webhook-relay/internal/validation"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithWebhookSecret configures the handler with a webhook secret for request validation.
func WithWebhookSecret(secret string) Option {
	return func(h *Handler) {
		h.webhookSecret = validation.NewWebhookSecret(secret)
	}
}

// WithForwarder sets the forwarder receiving accepted deliveries.
func WithForwarder(forwarder Forwarder) Option {
	return func(h *Handler) {
		h.forwarder = forwarder
	}
}

// WithMaxBodySize sets the largest accepted request body, in bytes.
func WithMaxBodySize(size int64) Option {
	return func(h *Handler) {
		if size > 0 {
			h.maxBodySize = size
		}
	}
}

// WithIDGenerator replaces the generator of delivery IDs used when the request carries none.
func WithIDGenerator(fn func() string) Option {
	return func(h *Handler) {
		h.newID = fn
	}
}
