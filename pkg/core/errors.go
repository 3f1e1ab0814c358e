package core

import "errors"

// Common errors.
var (
	// ErrShortCoordinate is returned when a coordinate sequence lacks the
	// mandatory lon and lat values. A feature without a position cannot
	// exist, so this is the one hard input error in the core.
	ErrShortCoordinate = errors.New("coordinate sequence must contain at least lon,lat")
)
