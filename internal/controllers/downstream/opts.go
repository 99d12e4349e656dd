package downstream

import (
	"log/slog"
	"net/http"
	"time"
)

// WithLogger sets the logger used to report forward outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.client = client
	}
}

// WithTimeout bounds each forward. A zero timeout keeps the client's own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithArchiveTimeout bounds each archive call.
func WithArchiveTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.archiveTimeout = timeout
		}
	}
}

// WithBasicAuth sets the credentials sent with every forward. An empty username disables authentication.
func WithBasicAuth(username, password string) Option {
	return func(c *Controller) {
		c.username = username
		c.password = password
	}
}

// WithArchiver stores a copy of every valid payload before it is forwarded.
func WithArchiver(archiver Archiver) Option {
	return func(c *Controller) {
		c.archiver = archiver
	}
}
