package core

import "errors"

var (
	// ErrInsufficientPoints is returned when an operation needs at least two points.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrNoMatch is returned when no pair of points lies within the tolerance.
	ErrNoMatch = errors.New("no matching points within tolerance")
	// ErrLengthMismatch is returned when a bulk replacement has the wrong length.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrDegenerateAlignment is returned when an alignment would produce an empty or inverted track.
	ErrDegenerateAlignment = errors.New("degenerate alignment")
	// ErrInvalidCoordinates is returned when coordinates are malformed or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates provided")
)
