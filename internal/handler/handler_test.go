package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isometry/gh-webhook-relay/internal/handler"
	"github.com/isometry/gh-webhook-relay/internal/models"
	"github.com/isometry/gh-webhook-relay/internal/validation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "testsecret"
	testBody   = `{"zen":"test"}`
	zeroSig    = "sha256=0000000000000000000000000000000000000000000000000000000000000000"
)

// blockingForwarder records deliveries and blocks each forward until released.
type blockingForwarder struct {
	mu         sync.Mutex
	deliveries []models.Delivery
	started    chan struct{}
	release    chan struct{}
}

func newBlockingForwarder() *blockingForwarder {
	return &blockingForwarder{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (f *blockingForwarder) Forward(_ context.Context, delivery models.Delivery) {
	f.mu.Lock()
	f.deliveries = append(f.deliveries, delivery)
	f.mu.Unlock()
	f.started <- struct{}{}
	<-f.release
}

func (f *blockingForwarder) calls() []models.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Delivery(nil), f.deliveries...)
}

func sign(body string) string {
	return "sha256=" + generateHmacSha256(body, testSecret)
}

func generateHmacSha256(payload, key string) string {
	mac := hmac.New(sha256.New, []byte(key))

	mac.Write([]byte(payload))
	b := make([]byte, hex.EncodedLen(sha256.Size))
	hex.Encode(b, mac.Sum(nil))
	return string(b)
}

func newTestHandler(t *testing.T, fwd handler.Forwarder, opts ...handler.Option) *handler.Handler {
	t.Helper()
	opts = append([]handler.Option{
		handler.WithWebhookSecret(testSecret),
		handler.WithForwarder(fwd),
	}, opts...)
	h, err := handler.NewHandler(opts...)
	require.NoError(t, err)
	return h
}

func TestNewHandler(t *testing.T) {
	testCases := []struct {
		Name        string
		Options     []handler.Option
		ExpectError bool
	}{
		{
			Name:        "missing_secret",
			Options:     []handler.Option{handler.WithForwarder(newBlockingForwarder())},
			ExpectError: true,
		},
		{
			Name:        "empty_secret",
			Options:     []handler.Option{handler.WithWebhookSecret(""), handler.WithForwarder(newBlockingForwarder())},
			ExpectError: true,
		},
		{
			Name:        "missing_forwarder",
			Options:     []handler.Option{handler.WithWebhookSecret(testSecret)},
			ExpectError: true,
		},
		{
			Name:    "valid",
			Options: []handler.Option{handler.WithWebhookSecret(testSecret), handler.WithForwarder(newBlockingForwarder())},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := handler.NewHandler(tc.Options...)
			assert.Equal(t, tc.ExpectError, err != nil, "error = %v", err)
		})
	}
}

func TestHandler_Process(t *testing.T) {
	testCases := []struct {
		Name           string
		Headers        map[string]string
		Body           string
		ExpectedStatus int
		ExpectedErr    error
		ExpectForward  bool
	}{
		{
			Name:           "missing_signature",
			Headers:        map[string]string{handler.EventTypeHeader: "push"},
			Body:           testBody,
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedErr:    validation.ErrMissingSignature,
		},
		{
			Name:           "zero_signature",
			Headers:        map[string]string{handler.SignatureHeader: zeroSig, handler.EventTypeHeader: "push"},
			Body:           testBody,
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedErr:    validation.ErrInvalidSignature,
		},
		{
			Name:           "malformed_signature",
			Headers:        map[string]string{handler.SignatureHeader: "md5=abc", handler.EventTypeHeader: "push"},
			Body:           testBody,
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedErr:    validation.ErrInvalidSignature,
		},
		{
			Name:           "signature_for_other_body",
			Headers:        map[string]string{handler.SignatureHeader: sign(`{"zen":"other"}`), handler.EventTypeHeader: "push"},
			Body:           testBody,
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedErr:    validation.ErrInvalidSignature,
		},
		{
			Name:           "ping",
			Headers:        map[string]string{handler.SignatureHeader: sign(testBody), handler.EventTypeHeader: "ping"},
			Body:           testBody,
			ExpectedStatus: http.StatusOK,
		},
		{
			Name:           "push",
			Headers:        map[string]string{handler.SignatureHeader: sign(testBody), handler.EventTypeHeader: "push"},
			Body:           testBody,
			ExpectedStatus: http.StatusAccepted,
			ExpectForward:  true,
		},
		{
			Name:           "missing_event_type",
			Headers:        map[string]string{handler.SignatureHeader: sign(testBody)},
			Body:           testBody,
			ExpectedStatus: http.StatusAccepted,
			ExpectForward:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			fwd := newBlockingForwarder()
			close(fwd.release)
			h := newTestHandler(t, fwd)

			resp, err := h.Process(models.Request{Body: []byte(tc.Body), Headers: tc.Headers})

			assert.Equal(t, tc.ExpectedStatus, resp.StatusCode)
			if tc.ExpectedErr != nil {
				assert.ErrorIs(t, err, tc.ExpectedErr)
			} else {
				assert.NoError(t, err)
			}

			require.NoError(t, h.Wait(context.Background()))
			if tc.ExpectForward {
				require.Len(t, fwd.calls(), 1)
				assert.Equal(t, tc.Body, string(fwd.calls()[0].Body))
			} else {
				assert.Empty(t, fwd.calls())
			}
		})
	}
}

func TestHandler_Process_DoesNotWaitForForward(t *testing.T) {
	fwd := newBlockingForwarder()
	h := newTestHandler(t, fwd)

	done := make(chan models.Response, 1)
	go func() {
		resp, _ := h.Process(models.Request{
			Body: []byte(testBody),
			Headers: map[string]string{
				handler.SignatureHeader:  sign(testBody),
				handler.EventTypeHeader:  "push",
				handler.DeliveryIDHeader: "72d3162e-cc78-11e3-81ab-4c9367dc0958",
			},
		})
		done <- resp
	}()

	select {
	case resp := <-done:
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	case <-time.After(5 * time.Second):
		t.Fatal("Process blocked on the forwarder")
	}

	<-fwd.started
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.DeadlineExceeded, "forward is still in flight")

	close(fwd.release)
	require.NoError(t, h.Wait(context.Background()))

	calls := fwd.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "push", calls[0].Event)
	assert.Equal(t, "72d3162e-cc78-11e3-81ab-4c9367dc0958", calls[0].ID)
}

func TestHandler_Process_GeneratesDeliveryID(t *testing.T) {
	fwd := newBlockingForwarder()
	close(fwd.release)
	h := newTestHandler(t, fwd, handler.WithIDGenerator(func() string { return "generated" }))

	_, err := h.Process(models.Request{
		Body:    []byte(testBody),
		Headers: map[string]string{handler.SignatureHeader: sign(testBody), handler.EventTypeHeader: "issues"},
	})
	require.NoError(t, err)
	require.NoError(t, h.Wait(context.Background()))

	require.Len(t, fwd.calls(), 1)
	assert.Equal(t, "generated", fwd.calls()[0].ID)
}

type panickingForwarder struct{}

func (panickingForwarder) Forward(context.Context, models.Delivery) {
	panic("boom")
}

func TestHandler_Process_ForwarderPanic(t *testing.T) {
	h := newTestHandler(t, panickingForwarder{})

	resp, err := h.Process(models.Request{
		Body:    []byte(testBody),
		Headers: map[string]string{handler.SignatureHeader: sign(testBody), handler.EventTypeHeader: "push"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NoError(t, h.Wait(context.Background()))
}

func TestHandler_ReadBody(t *testing.T) {
	h := newTestHandler(t, newBlockingForwarder(), handler.WithMaxBodySize(16))

	testCases := []struct {
		Name        string
		Body        string
		ExpectError bool
	}{
		{Name: "empty", Body: ""},
		{Name: "within_limit", Body: testBody},
		{Name: "exact_limit", Body: strings.Repeat("x", 16)},
		{Name: "over_limit", Body: strings.Repeat("x", 17), ExpectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			body, err := h.ReadBody(bytes.NewBufferString(tc.Body))
			if tc.ExpectError {
				var readErr *handler.BodyReadError
				assert.ErrorAs(t, err, &readErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Body, string(body))
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestHandler_ReadBody_Unreadable(t *testing.T) {
	h := newTestHandler(t, newBlockingForwarder())

	body, err := h.ReadBody(failingReader{})
	assert.Nil(t, body)
	var readErr *handler.BodyReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorContains(t, readErr.Cause, "connection reset by peer")
}

func TestHandler_ReadBody_UnboundedLimit(t *testing.T) {
	h := newTestHandler(t, newBlockingForwarder(), handler.WithMaxBodySize(math.MaxInt64))

	body, err := h.ReadBody(bytes.NewBufferString(testBody))
	require.NoError(t, err)
	assert.Equal(t, testBody, string(body))

	resp, err := h.Process(models.Request{
		Body:    body,
		Headers: map[string]string{handler.SignatureHeader: sign(testBody), handler.EventTypeHeader: "ping"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_Precheck(t *testing.T) {
	h := newTestHandler(t, newBlockingForwarder())

	resp, err := h.Precheck(map[string]string{})
	require.ErrorIs(t, err, validation.ErrMissingSignature)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = h.Precheck(map[string]string{handler.SignatureHeader: zeroSig})
	assert.NoError(t, err)
	assert.Nil(t, resp)
}
