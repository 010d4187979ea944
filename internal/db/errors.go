package db

import "errors"

// ErrKeyNotFound is returned by Get for a missing or expired key.
var ErrKeyNotFound = errors.New("db: key not found")

// Operation names used in Error.
const (
	OpGet    = "get"
	OpPut    = "put"
	OpDelete = "delete"
)

// Error records the operation and key of a failed store call.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return "db " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
