package pipeline

import "errors"

// ErrInput is returned when a source file is missing, unreadable or in an
// unsupported format
var ErrInput = errors.New("invalid run input")
