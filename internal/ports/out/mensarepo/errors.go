package mensarepo

import "errors"

// ErrNotFound indicates the requested mensa does not exist.
var ErrNotFound = errors.New("mensa not found")
