package entity

import "errors"

// ErrNotFound marks a catalog lookup that found no card. It is a normal
// outcome, not a transport failure.
var ErrNotFound = errors.New("card not found")
