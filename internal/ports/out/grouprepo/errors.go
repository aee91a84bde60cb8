package grouprepo

import "errors"

// ErrNotFound indicates the requested group does not exist.
var ErrNotFound = errors.New("group not found")
