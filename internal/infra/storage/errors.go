package storage

import "fmt"

// Error represents a failure opening or preparing on-disk storage.
type Error struct {
	Op   string // "open", "migrate", "key"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
