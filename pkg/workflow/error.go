package workflow

import "errors"

// ErrConfiguration is returned when a workflow cannot be validated:
// unknown presets, filters or measures, a malformed document, or a
// masking step placed before any score computation
var ErrConfiguration = errors.New("invalid workflow configuration")
