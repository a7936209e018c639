package sbisec

import (
	"errors"
	"fmt"
)

// ErrLoggedOut is returned by Session methods called after Logout.
var ErrLoggedOut = errors.New("sbisec: session is logged out")

// StatusError is a non-2xx answer from the brokerage.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sbisec: %s %s returned status %d", e.Method, e.URL, e.StatusCode)
}
