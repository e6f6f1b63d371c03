package domain

import "errors"

var (
	// ErrFileNotFound is returned by FileReader implementations for missing files.
	ErrFileNotFound = errors.New("file not found")
	// ErrPathOutsideRoot rejects paths that escape the project root.
	ErrPathOutsideRoot = errors.New("path escapes project root")
)
