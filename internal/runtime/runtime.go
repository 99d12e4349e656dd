// Package runtime exposes the webhook handler over HTTP.
package runtime

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/gh-webhook-relay/internal/handler"
	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/isometry/gh-webhook-relay/internal/models"
)

// Option is a functional option used to configure a Runtime instance.
type Option func(*Runtime)

// WithLogger sets the logger instance for the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPath sets the path the webhook is served on.
func WithPath(path string) Option {
	return func(r *Runtime) {
		r.path = path
	}
}

// Runtime adapts the webhook handler to net/http.
type Runtime struct {
	*handler.Handler
	logger *slog.Logger
	path   string
}

// NewRuntime creates a new runtime instance
func NewRuntime(handler *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: handler}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.path == "" {
		_inst.path = "/webhook"
	}
	return _inst
}

// Router returns the HTTP routes of the service.
func (r *Runtime) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(r.loggingMiddleware)
	router.Use(middleware.Recoverer)

	router.Post(r.path, r.ServeHTTP)
	router.Get("/healthz", func(resp http.ResponseWriter, _ *http.Request) {
		helpers.RespondHTTP(models.Response{Body: "ok", StatusCode: http.StatusOK}, nil, resp)
	})
	return router
}

// ServeHTTP is the HTTP handler for the webhook endpoint.
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	logger := r.logger.With(slog.String("requestID", middleware.GetReqID(req.Context())))
	logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("method", req.Method), slog.Any("path", req.URL.Path))

	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		headers[strings.ToLower(k)] = v[0]
	}

	if result, err := r.Handler.Precheck(headers); err != nil {
		helpers.RespondHTTP(*result, nil, resp)
		return
	}

	body, err := r.Handler.ReadBody(req.Body)
	if err != nil {
		logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(models.Response{Body: "failed to read body", StatusCode: http.StatusBadRequest}, nil, resp)
		return
	}

	result, err := r.Handler.Process(models.Request{Body: body, Headers: headers})
	if err != nil {
		logger.Debug("request rejected", slog.Int("status", result.StatusCode), slog.Any("error", err))
	}
	helpers.RespondHTTP(result, nil, resp)
}

// loggingMiddleware logs every request without its body.
func (r *Runtime) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		r.logger.Info("http request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("durationMs", time.Since(start).Milliseconds()),
			slog.String("requestID", middleware.GetReqID(req.Context())),
			slog.String("remoteAddr", req.RemoteAddr),
		)
	})
}
