package recordstore

import "errors"

// Sentinel errors returned by recordstore operations.
//
// Operations wrap these with context; callers classify with errors.Is.
var (
	// ErrInvalidInput indicates invalid options or a value whose length is
	// not a multiple of the store's element size.
	ErrInvalidInput = errors.New("recordstore: invalid input")

	// ErrCorrupt indicates the file header cannot describe a valid store.
	ErrCorrupt = errors.New("recordstore: corrupt")

	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("recordstore: closed")
)
