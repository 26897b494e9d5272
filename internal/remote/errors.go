package remote

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("remote: record not found")

// StatusError is returned for non-2xx responses from the data service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.Code, e.Body)
}

// IsNotFound reports whether err means the row does not exist, either as the
// sentinel or as an HTTP 404.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}
