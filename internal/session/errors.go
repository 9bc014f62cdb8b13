package session

import "errors"

// Engine refusals. Both are local and non-fatal; a refused call leaves the session
// unchanged.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidOperation     = errors.New("invalid operation")
)
