// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and the handlers to distinguish between different
// failure scenarios without depending on the storage engine. Both the
// MySQL repositories in this package and the in-memory store in
// memstore return them.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrSeatTaken is returned by a booking insert when one of the requested
// seats is already held by a pending or confirmed booking of the same
// showing. No rows are written in that case.
var ErrSeatTaken = errors.New("seat already taken")

// ErrDuplicateBookingID is returned when a booking insert collides on the
// public booking id.
var ErrDuplicateBookingID = errors.New("duplicate booking id")

// ErrDuplicateName is returned when a hall or movie name is already used.
var ErrDuplicateName = errors.New("duplicate name")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUnchanged may be returned by a booking mutation callback to signal
// that nothing needs to be written. The store then returns the current
// booking without touching it.
var ErrUnchanged = errors.New("unchanged")
