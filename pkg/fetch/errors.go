package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrSourceNotFound is returned when no source is registered under a name
var ErrSourceNotFound = errors.New("fetch source not found")

// TimeoutError reports that a remote call exceeded the configured bound. It
// is deliberately distinct from a transport failure and names both the
// resource and the bound.
type TimeoutError struct {
	Resource string
	Limit    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch of %s timed out after %s", e.Resource, e.Limit)
}

// NetworkError reports a transport-level failure against a remote resource
type NetworkError struct {
	Resource string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch of %s failed: %v", e.Resource, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
