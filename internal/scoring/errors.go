package scoring

import "errors"

var (
	// ErrInvalidArgument marks a malformed side, direction, format or score.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMatchAlreadyCompleted is returned when a point arrives after the match ended.
	ErrMatchAlreadyCompleted = errors.New("match already completed")
)
