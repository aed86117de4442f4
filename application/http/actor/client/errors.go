package client

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrRedirectLimitExceeded = errors.New("redirect limit exceeded")
	ErrMissingLocation       = errors.New("redirect response has no Location")
	ErrEmptyHost             = errors.New("host is empty")
	ErrInvalidPort           = errors.New("invalid port")
)

// RedirectLimitError is returned along with the redirect response which was not followed.
type RedirectLimitError struct {
	Limit    uint
	Count    uint
	Location string
}

func (e *RedirectLimitError) Error() string {
	return fmt.Sprintf("%s: redirect %d of at most %d (Location %q)", ErrRedirectLimitExceeded, e.Count, e.Limit, e.Location)
}

func (e *RedirectLimitError) Is(target error) bool {
	return target == ErrRedirectLimitExceeded
}
