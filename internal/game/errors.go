package game

import "errors"

var (
	// ErrInvalidDimensions is returned when a grid is requested with a
	// non-positive row or column count.
	ErrInvalidDimensions = errors.New("game: grid dimensions must be positive")

	// ErrCorruptSnapshot is returned when a persisted snapshot does not
	// describe a valid session for the configured grid.
	ErrCorruptSnapshot = errors.New("game: corrupt snapshot")
)
