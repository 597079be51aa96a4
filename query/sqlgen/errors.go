package sqlgen

import "errors"

var (
	// ErrPrecondition is returned when a builder is rendered or executed
	// before it reached a buildable state
	ErrPrecondition = errors.New("builder precondition not satisfied")
	// ErrPlaceholder is returned for raw fragments whose placeholders do not
	// line up with their arguments
	ErrPlaceholder = errors.New("malformed placeholder")
)
