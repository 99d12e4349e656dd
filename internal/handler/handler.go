// Package handler implements the webhook gateway: signature verification, ping handling and the
// detached dispatch of accepted deliveries to the forwarder.
package handler

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/google/go-github/v84/github"
	"github.com/google/uuid"
	"github.com/isometry/gh-webhook-relay/internal/config"
	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/isometry/gh-webhook-relay/internal/models"
	"github.com/isometry/gh-webhook-relay/internal/validation"
	"github.com/pkg/errors"
)

// PingEvent is the event GitHub sends to check that a webhook is reachable.
const PingEvent = "ping"

// Header names as they appear in the lower-cased header map.
var (
	SignatureHeader  = strings.ToLower(github.SHA256SignatureHeader)
	EventTypeHeader  = strings.ToLower(github.EventTypeHeader)
	DeliveryIDHeader = strings.ToLower(github.DeliveryIDHeader)
)

// Forwarder delivers an accepted payload downstream.
type Forwarder interface {
	Forward(ctx context.Context, delivery models.Delivery)
}

// Option is a functional option used to configure a Handler instance.
type Option func(*Handler)

// Handler authenticates webhook requests and hands accepted deliveries to a Forwarder.
type Handler struct {
	logger        *slog.Logger
	webhookSecret *validation.WebhookSecret
	forwarder     Forwarder
	maxBodySize   int64
	newID         func() string

	inflight sync.WaitGroup
}

// NewHandler returns a Handler. A webhook secret and a forwarder are required.
func NewHandler(options ...Option) (*Handler, error) {
	_inst := &Handler{
		logger:      helpers.NewNoopLogger(),
		maxBodySize: config.DefaultMaxBodySize,
		newID:       uuid.NewString,
	}
	for _, opt := range options {
		opt(_inst)
	}

	if _inst.webhookSecret == nil || len(*_inst.webhookSecret) == 0 {
		return nil, errors.New("missing webhook secret")
	}
	if _inst.forwarder == nil {
		return nil, errors.New("missing forwarder")
	}
	return _inst, nil
}

// Precheck rejects requests without a signature header before their body is read.
func (h *Handler) Precheck(headers map[string]string) (*models.Response, error) {
	if _, found := headers[SignatureHeader]; !found {
		h.logger.Warn("missing signature header", slog.String("header", github.SHA256SignatureHeader))
		return &models.Response{Body: "missing signature", StatusCode: http.StatusUnauthorized}, validation.ErrMissingSignature
	}
	return nil, nil
}

// ReadBody reads at most the configured body size from r.
func (h *Handler) ReadBody(r io.Reader) ([]byte, error) {
	limit := h.maxBodySize
	if limit < math.MaxInt64 {
		limit++
	}
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, &BodyReadError{Cause: err}
	}
	if int64(len(body)) > h.maxBodySize {
		return nil, &BodyReadError{Cause: errors.Errorf("body exceeds %d bytes", h.maxBodySize)}
	}
	return body, nil
}

// Process authenticates the request and, for any event but ping, dispatches it to the forwarder
// without waiting for the outcome.
func (h *Handler) Process(req models.Request) (models.Response, error) {
	if resp, err := h.Precheck(req.Headers); err != nil {
		return *resp, err
	}

	if err := h.webhookSecret.ValidateSignature(req.Body, req.Headers[SignatureHeader]); err != nil {
		h.logger.Warn("signature verification failed", slog.Any("error", err))
		return models.Response{Body: "invalid signature", StatusCode: http.StatusUnauthorized}, validation.ErrInvalidSignature
	}

	delivery := models.Delivery{
		ID:    req.Headers[DeliveryIDHeader],
		Event: req.Headers[EventTypeHeader],
		Body:  req.Body,
	}
	if delivery.ID == "" {
		delivery.ID = h.newID()
	}
	logger := h.logger.With(slog.String("event", delivery.Event), slog.String("deliveryID", delivery.ID))

	if delivery.Event == PingEvent {
		logger.Info("received ping event")
		return models.Response{Body: "pong", StatusCode: http.StatusOK}, nil
	}

	h.dispatch(logger, delivery)
	logger.Info("accepted event")
	return models.Response{Body: "accepted", StatusCode: http.StatusAccepted}, nil
}

// Wait blocks until every dispatched forward has returned or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch runs the forward in its own goroutine, detached from the request context.
func (h *Handler) dispatch(logger *slog.Logger, delivery models.Delivery) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("forwarder panicked", slog.Any("panic", r))
			}
		}()
		h.forwarder.Forward(context.Background(), delivery)
	}()
}
