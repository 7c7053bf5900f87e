package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-autopilot/internal/cipher"
)

var (
	ErrServiceUnavailable = errors.New("quiz service unavailable")
	ErrMalformedResponse  = errors.New("malformed quiz service response")
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsSoft reports whether err is a transient failure the caller may retry
// on a later iteration.
func IsSoft(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &apiErr):
		return true
	}
	return false
}

// IsHard reports whether err comes from undecryptable content; retrying
// cannot fix it.
func IsHard(err error) bool {
	return errors.Is(err, cipher.ErrDecryption)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
