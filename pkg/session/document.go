package session

import (
	"github.com/google/uuid"

	"github.com/odvcencio/scened/pkg/history"
	"github.com/odvcencio/scened/pkg/scene"
)

// DocumentID uniquely identifies an open document within a session.
type DocumentID string

func newDocumentID() DocumentID {
	return DocumentID(uuid.NewString())
}

// docState is the Live-xor-Dormant union tag. Exactly one document in a
// session is live at any time.
type docState int

const (
	dormant docState = iota
	live
)

// Document is one open scene unit: a display name, an optional backing file
// path, and either a live graph with its history (active) or a frozen
// snapshot with its history (inactive).
type Document struct {
	id   DocumentID
	name string
	path string

	state docState

	// live state
	graph *scene.Graph
	log   *history.Log

	// dormant state
	snap   *scene.Snapshot
	frozen *history.Log

	// digest of the snapshot at the last successful save (or of the initial
	// state for documents never saved). The modified flag compares against
	// this, so undoing back to the saved state clears the indicator.
	savedDigest [32]byte
}

// ID returns the document's session-unique id.
func (d *Document) ID() DocumentID { return d.id }

// Name returns the display name.
func (d *Document) Name() string { return d.name }

// Path returns the backing file path, or "" for unsaved documents.
func (d *Document) Path() string { return d.path }

// currentSnapshot captures the document's present state without changing its
// Live/Dormant status.
func (d *Document) currentSnapshot() *scene.Snapshot {
	if d.state == live {
		return scene.Capture(d.graph)
	}
	return d.snap
}

// modified reports whether the document differs from its last save.
func (d *Document) modified() bool {
	return d.currentSnapshot().Digest() != d.savedDigest
}

// Info is one row of a session's document listing.
type Info struct {
	ID       DocumentID
	Name     string
	Path     string
	Modified bool
	Active   bool
}
