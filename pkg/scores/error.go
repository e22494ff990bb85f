package scores

import "errors"

// ErrUnknownScoreName is returned when a mask or read targets a column
// that is not present in the matrix
var ErrUnknownScoreName = errors.New("unknown score name")
