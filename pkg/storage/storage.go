// Package storage persists scene documents. The engine treats the byte
// layout as opaque; the only contract is lossless round-tripping of a
// snapshot plus its display metadata.
package storage

import (
	"errors"

	"github.com/odvcencio/scened/pkg/scene"
)

var (
	// ErrNotExist is returned by Load when no document exists at the path.
	ErrNotExist = errors.New("document does not exist")

	// ErrCorrupt is returned by Load when the file exists but cannot be
	// decoded (bad envelope, failed decompression, or digest mismatch).
	ErrCorrupt = errors.New("corrupt document file")
)

// Document is the unit of persistence: a snapshot plus display metadata.
type Document struct {
	Name     string
	Snapshot *scene.Snapshot
}

// Store loads and saves serialized documents. Both calls are synchronous and
// complete or fail before returning.
type Store interface {
	Load(path string) (*Document, error)
	Save(path string, doc *Document) error
}
