package session

import "errors"

var (
	// ErrUnknownDocument is returned when an id does not name an open
	// document.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrNoPath is returned by Save for a document that has never been given
	// a backing file path.
	ErrNoPath = errors.New("document has no file path")
)
