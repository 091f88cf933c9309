package kb

import "errors"

// ErrDuplicateName is returned when a trajectory name is already in use.
var ErrDuplicateName = errors.New("trajectory name already in use")
