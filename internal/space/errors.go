package space

import "errors"

// ErrSpaceNotFound is returned for joins and lookups against an unknown or
// already-closed space id. Its message is the wire error string clients
// match on.
var ErrSpaceNotFound = errors.New("Space not found")
