// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the remote rejected a request because of its current state.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates a request was rejected as invalid, locally or by the remote.
var ErrValidation = errors.New("validation failed")

// ErrPrecondition indicates a command was rejected locally before any network call
// because the client state does not allow it.
var ErrPrecondition = errors.New("precondition failed")

// ErrTransport indicates the remote could not be reached or answered with a server failure.
var ErrTransport = errors.New("transport failure")
