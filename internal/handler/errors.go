package handler

import "fmt"

// BodyReadError is returned when the request body cannot be read or exceeds the size limit.
type BodyReadError struct {
	Cause error
}

func (m *BodyReadError) Error() string {
	return fmt.Sprintf("failed to read body: %v", m.Cause)
}

func (m *BodyReadError) Unwrap() error {
	return m.Cause
}
