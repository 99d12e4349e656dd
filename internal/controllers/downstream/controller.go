// Package downstream provides the Controller relaying verified webhook payloads to the workflow engine.
//
// Delivery is best effort and at most once: every failure is logged and the payload is dropped.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/isometry/gh-webhook-relay/internal/models"
	"github.com/pkg/errors"
)

// maxErrorBody bounds how much of a failed downstream response is logged.
const maxErrorBody = 512

// DefaultArchiveTimeout bounds each archive call unless WithArchiveTimeout overrides it.
const DefaultArchiveTimeout = 10 * time.Second

// Archiver stores a copy of a delivery before it is forwarded.
type Archiver interface {
	Archive(ctx context.Context, delivery models.Delivery) error
}

// Controller forwards payloads to a fixed downstream URL using a shared HTTP client.
type Controller struct {
	logger   *slog.Logger
	client   *http.Client
	url      string
	username string
	password string
	archiver Archiver

	timeout        time.Duration
	archiveTimeout time.Duration
}

// Option is a functional option used to configure a Controller instance.
type Option func(*Controller)

// NewController returns a Controller posting to url.
func NewController(url string, opts ...Option) (*Controller, error) {
	if url == "" {
		return nil, errors.New("missing downstream URL")
	}
	_inst := &Controller{url: url, archiveTimeout: DefaultArchiveTimeout}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.client == nil {
		_inst.client = &http.Client{}
	}
	if _inst.timeout > 0 {
		client := *_inst.client
		client.Timeout = _inst.timeout
		_inst.client = &client
	}
	return _inst, nil
}

// Forward delivers the payload and logs the outcome. It never reports failure to the caller.
func (c *Controller) Forward(ctx context.Context, delivery models.Delivery) {
	logger := c.logger.With(slog.String("deliveryID", delivery.ID), slog.String("event", delivery.Event))
	logger.Info("forwarding payload...")

	status, err := c.Deliver(ctx, delivery)
	if err != nil {
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr):
			logger.Error("downstream returned error",
				slog.Int("status", statusErr.StatusCode),
				slog.String("body", statusErr.Body))
		case errors.Is(err, ErrInvalidPayload):
			logger.Error("failed to parse body as JSON", slog.Any("error", err))
		default:
			logger.Error("failed to call downstream", slog.Any("error", err))
		}
		return
	}
	logger.Info("successfully forwarded payload", slog.Int("status", status))
}

// Deliver validates the payload as JSON, archives it when an archiver is configured, and posts it
// downstream. It returns the downstream status code on success.
func (c *Controller) Deliver(ctx context.Context, delivery models.Delivery) (int, error) {
	var payload json.RawMessage
	if err := json.Unmarshal(delivery.Body, &payload); err != nil {
		return 0, errors.Wrap(ErrInvalidPayload, err.Error())
	}

	if c.archiver != nil {
		c.archive(ctx, delivery)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(delivery.Body))
	if err != nil {
		return 0, errors.Wrap(err, "failed to create downstream request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "downstream request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: helpers.Truncate(string(body), maxErrorBody)}
	}
	return resp.StatusCode, nil
}

// archive stores a copy of the delivery, giving up after the archive timeout.
func (c *Controller) archive(ctx context.Context, delivery models.Delivery) {
	ctx, cancel := context.WithTimeout(ctx, c.archiveTimeout)
	defer cancel()
	if err := c.archiver.Archive(ctx, delivery); err != nil {
		c.logger.Warn("failed to archive payload", slog.String("deliveryID", delivery.ID), slog.Any("error", err))
	}
}
