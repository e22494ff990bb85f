package spectrum

import "errors"

var (
	// ErrPeakLengthMismatch is returned when mz and intensity slices differ in length
	ErrPeakLengthMismatch = errors.New("mz and intensity slices differ in length")

	// ErrPeaksNotSorted is returned when mz values are not strictly ascending
	ErrPeaksNotSorted = errors.New("peak mz values must be strictly ascending")
)
