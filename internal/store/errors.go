package store

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound = errors.New("store: key not found")
)

// Op constants name the failing operation for error context.
const (
	OpGet = "GET"
	OpSet = "SET"
	OpDel = "DEL"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
