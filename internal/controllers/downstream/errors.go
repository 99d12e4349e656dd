package downstream

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidPayload is returned when the verified body is not valid JSON.
var ErrInvalidPayload = errors.New("invalid JSON payload")

// StatusError reports a non-success downstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream returned status %d", e.StatusCode)
}
