package specio

import "errors"

// ErrUnsupportedFormat is returned when a file extension maps to no known
// spectrum format
var ErrUnsupportedFormat = errors.New("unsupported spectrum file format")
