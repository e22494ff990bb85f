package similarity

import "errors"

var (
	// ErrUnknownMeasure is returned when a measure name is not registered
	ErrUnknownMeasure = errors.New("unknown similarity measure")

	// ErrInvalidOption is returned when a measure option has the wrong type or value
	ErrInvalidOption = errors.New("invalid measure option")

	// ErrMissingPrecursorMz is returned when a measure needs precursor_mz
	// and a spectrum does not carry a usable value
	ErrMissingPrecursorMz = errors.New("missing precursor_mz, apply add_precursor_mz first")

	// ErrMissingParentMass is returned when a measure needs parent_mass
	// and a spectrum does not carry a usable value
	ErrMissingParentMass = errors.New("missing parent_mass, apply add_parent_mass first")
)
