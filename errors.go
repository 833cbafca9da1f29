package simfs

import "errors"

// Error kinds reported by file system operations. Use errors.Is to match
// them against errors returned from the engine.
var (
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotADirectory = errors.New("not a directory")
	ErrIsADirectory  = errors.New("is a directory")
	ErrUnsupported   = errors.New("unsupported operation")

	// ErrPersistence marks an operation whose in-memory effect was applied
	// but could not be written to the snapshot store.
	ErrPersistence = errors.New("persistence failure")

	// ErrNoSnapshot is returned by SnapshotStore.Load when no image exists
	ErrNoSnapshot = errors.New("no snapshot")
)

// PathError records an error together with the operation and the path
// (or path segment) that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError is a shorthand for &PathError{...}
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}
