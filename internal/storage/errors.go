package storage

import "errors"

// ErrObjectNotFound is returned by Download when no object exists at the
// requested key. All implementations normalize their provider errors to
// this sentinel so callers can errors.Is against it.
var ErrObjectNotFound = errors.New("object not found")
