package scanner

import (
	"errors"
	"fmt"
)

// ErrTooManyFiles is returned before any analysis when discovery selects more
// files than the configured limit.
var ErrTooManyFiles = errors.New("too many files")

// PatternError reports a glob pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
