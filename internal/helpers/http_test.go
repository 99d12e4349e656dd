package helpers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isometry/gh-webhook-relay/internal/helpers"
	"github.com/isometry/gh-webhook-relay/internal/models"
	"github.com/stretchr/testify/assert"
)

type testCase struct {
	Name     string
	Response models.Response
	Error    error
	Expected expectedResponse
}

type expectedResponse struct {
	StatusCode int
	Body       string
	Header     string
}

func TestRespondHTTP(t *testing.T) {
	testCases := []testCase{
		{
			Name: "accepted_without_error",
			Response: models.Response{
				StatusCode: http.StatusAccepted,
				Body:       "accepted",
			},
			Expected: expectedResponse{
				StatusCode: http.StatusAccepted,
				Body:       `"message":"accepted"`,
				Header:     "application/json",
			},
		},
		{
			Name: "unauthorized_with_error",
			Response: models.Response{
				StatusCode: http.StatusUnauthorized,
				Body:       "invalid signature",
			},
			Error: errors.New("invalid signature"),
			Expected: expectedResponse{
				StatusCode: http.StatusUnauthorized,
				Body:       `"message":"invalid signature"`,
				Header:     "application/json",
			},
		},
		{
			Name: "custom_content_type",
			Response: models.Response{
				StatusCode: http.StatusOK,
				Body:       "pong",
				Headers:    map[string]string{"Content-Type": "application/problem+json"},
			},
			Expected: expectedResponse{
				StatusCode: http.StatusOK,
				Body:       "pong",
				Header:     "application/problem+json",
			},
		},
		{
			Name:     "empty_response_defaults_to_ok",
			Response: models.Response{},
			Expected: expectedResponse{
				StatusCode: http.StatusOK,
				Body:       `"message":""`,
				Header:     "application/json",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rw := httptest.NewRecorder()

			helpers.RespondHTTP(tc.Response, tc.Error, rw)

			assert.Equal(t, tc.Expected.StatusCode, rw.Code)
			assert.Equal(t, tc.Expected.Header, rw.Result().Header.Get("Content-Type"))
			assert.Contains(t, rw.Body.String(), tc.Expected.Body)
			if tc.Error != nil {
				assert.Contains(t, rw.Body.String(), tc.Error.Error())
			} else {
				assert.NotContains(t, rw.Body.String(), `"error"`)
			}
		})
	}
}
