package filters

import "errors"

var (
	// ErrUnknownFilter is returned when a filter name is not registered
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrUnknownPreset is returned when a filter preset name is not defined
	ErrUnknownPreset = errors.New("unknown filter preset")

	// ErrInvalidOption is returned when a filter option has the wrong type or value
	ErrInvalidOption = errors.New("invalid filter option")
)
