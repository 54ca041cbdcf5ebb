// Package session manages the collection of open documents: which one is
// live, how edits flow through each document's history, and how documents
// round-trip between live graphs and dormant snapshots on tab switches.
//
// The engine is single-threaded by contract: every operation completes (or
// rejects) synchronously within the caller's step, and no two documents are
// ever simultaneously live.
package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/odvcencio/scened/pkg/history"
	"github.com/odvcencio/scened/pkg/scene"
	"github.com/odvcencio/scened/pkg/storage"
)

// Observer is notified of document lifecycle events. Purely observational;
// return values are not consumed.
type Observer interface {
	DocumentOpened(path string)
	DocumentSaved(path string)
}

// Manager owns the ordered document collection and the single live slot.
type Manager struct {
	store        storage.Store
	historyLimit int
	observers    []Observer

	docs        []*Document
	active      *Document
	untitledSeq int
}

// NewManager creates a session holding one fresh live document.
func NewManager(store storage.Store, cfg Config) *Manager {
	m := &Manager{store: store, historyLimit: cfg.HistoryLimit}
	doc := m.newUntitled()
	doc.state = live
	doc.graph = freshGraph()
	doc.log = history.NewLog(m.historyLimit)
	doc.snap = nil
	m.docs = append(m.docs, doc)
	m.active = doc
	return m
}

// AddObserver registers an observer for open/save events.
func (m *Manager) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// freshGraph builds the starting graph for a new document: a single root
// entity named "Root".
func freshGraph() *scene.Graph {
	g := scene.NewGraph()
	root, _ := g.Create(scene.EntityID{})
	_ = g.SetComponent(root, scene.Name{Value: "Root"})
	return g
}

func (m *Manager) newUntitled() *Document {
	m.untitledSeq++
	name := "Untitled"
	if m.untitledSeq > 1 {
		name = fmt.Sprintf("Untitled %d", m.untitledSeq)
	}
	snap := scene.Capture(freshGraph())
	return &Document{
		id:          newDocumentID(),
		name:        name,
		state:       dormant,
		snap:        snap,
		savedDigest: snap.Digest(),
	}
}

func (m *Manager) find(id DocumentID) *Document {
	for _, d := range m.docs {
		if d.id == id {
			return d
		}
	}
	return nil
}

// New creates a fresh empty document. The document starts dormant; call
// Activate to edit it.
func (m *Manager) New() DocumentID {
	doc := m.newUntitled()
	m.docs = append(m.docs, doc)
	return doc.id
}

// Open loads the document at path into a new dormant document without
// activating it. Malformed data fails the open and leaves the session
// unchanged.
func (m *Manager) Open(path string) (DocumentID, error) {
	loaded, err := m.store.Load(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	name := loaded.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc := &Document{
		id:          newDocumentID(),
		name:        name,
		path:        path,
		state:       dormant,
		snap:        loaded.Snapshot,
		savedDigest: loaded.Snapshot.Digest(),
	}
	m.docs = append(m.docs, doc)
	for _, o := range m.observers {
		o.DocumentOpened(path)
	}
	return doc.id, nil
}

// Activate makes the target document live. The outgoing document is
// captured into a snapshot (history frozen alongside) strictly before the
// incoming one is restored; if restoring the target fails, the currently
// live document is left untouched. Activating the active document is a
// no-op.
func (m *Manager) Activate(id DocumentID) error {
	target := m.find(id)
	if target == nil {
		return fmt.Errorf("activate %s: %w", id, ErrUnknownDocument)
	}
	if target == m.active {
		return nil
	}

	outSnap := scene.Capture(m.active.graph)

	g, log, err := m.materialize(target)
	if err != nil {
		return err
	}

	out := m.active
	out.state = dormant
	out.snap = outSnap
	out.frozen = out.log
	out.graph = nil
	out.log = nil

	target.state = live
	target.graph = g
	target.log = log
	target.snap = nil
	target.frozen = nil
	m.active = target
	return nil
}

// materialize resolves a dormant document into a live graph and history
// without mutating session state on failure. Every dormant document carries
// a snapshot (fresh ones get a default capture at creation, opened ones the
// loaded one); the frozen history rides along when present.
func (m *Manager) materialize(d *Document) (*scene.Graph, *history.Log, error) {
	g, err := scene.Restore(d.snap)
	if err != nil {
		return nil, nil, fmt.Errorf("activate %q: %w", d.name, err)
	}
	log := d.frozen
	if log == nil {
		log = history.NewLog(m.historyLimit)
	}
	return g, log, nil
}

// Save persists the document to its backing path. The modified flag clears
// only on success; a failed save leaves it set.
func (m *Manager) Save(id DocumentID) error {
	doc := m.find(id)
	if doc == nil {
		return fmt.Errorf("save %s: %w", id, ErrUnknownDocument)
	}
	if doc.path == "" {
		return fmt.Errorf("save %q: %w", doc.name, ErrNoPath)
	}
	return m.saveTo(doc, doc.path)
}

// SaveAs persists the document to path, makes path its backing file, and
// renames the document to the file stem. Nothing changes on failure.
func (m *Manager) SaveAs(id DocumentID, path string) error {
	doc := m.find(id)
	if doc == nil {
		return fmt.Errorf("save %s: %w", id, ErrUnknownDocument)
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("save %q: empty path", doc.name)
	}
	prevName := doc.name
	doc.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := m.saveTo(doc, path); err != nil {
		doc.name = prevName
		return err
	}
	doc.path = path
	return nil
}

func (m *Manager) saveTo(doc *Document, path string) error {
	snap := doc.currentSnapshot()
	if err := m.store.Save(path, &storage.Document{Name: doc.name, Snapshot: snap}); err != nil {
		return fmt.Errorf("save %q: %w", doc.name, err)
	}
	doc.savedDigest = snap.Digest()
	for _, o := range m.observers {
		o.DocumentSaved(path)
	}
	return nil
}

// Close removes the document from the session, discarding any unsaved
// modifications. Closing the active document activates its nearest neighbor
// first; closing the last document replaces it with a fresh empty one, so
// the session never drops to zero documents.
func (m *Manager) Close(id DocumentID) error {
	idx := -1
	for i, d := range m.docs {
		if d.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("close %s: %w", id, ErrUnknownDocument)
	}
	doc := m.docs[idx]

	if doc == m.active {
		var repl *Document
		synthesized := false
		if len(m.docs) == 1 {
			repl = m.newUntitled()
			m.docs = append(m.docs, repl)
			synthesized = true
		} else if idx+1 < len(m.docs) {
			repl = m.docs[idx+1]
		} else {
			repl = m.docs[idx-1]
		}
		g, log, err := m.materialize(repl)
		if err != nil {
			if synthesized {
				m.docs = m.docs[:len(m.docs)-1]
			}
			return err
		}
		repl.state = live
		repl.graph = g
		repl.log = log
		repl.snap = nil
		repl.frozen = nil
		m.active = repl
	}

	for i, d := range m.docs {
		if d == doc {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			break
		}
	}
	return nil
}

// ActiveDocument returns the id of the live document.
func (m *Manager) ActiveDocument() DocumentID {
	return m.active.id
}

// Documents lists the open documents in stable insertion order.
func (m *Manager) Documents() []Info {
	out := make([]Info, len(m.docs))
	for i, d := range m.docs {
		out[i] = Info{
			ID:       d.id,
			Name:     d.name,
			Path:     d.path,
			Modified: d.modified(),
			Active:   d == m.active,
		}
	}
	return out
}

// Modified reports whether the document differs from its last save.
func (m *Manager) Modified(id DocumentID) (bool, error) {
	doc := m.find(id)
	if doc == nil {
		return false, fmt.Errorf("modified %s: %w", id, ErrUnknownDocument)
	}
	return doc.modified(), nil
}

// Graph returns the live document's entity graph.
func (m *Manager) Graph() *scene.Graph {
	return m.active.graph
}

// History returns the live document's history log.
func (m *Manager) History() *history.Log {
	return m.active.log
}

// Apply runs the command's forward payload on the live graph and records it
// in the live document's history.
func (m *Manager) Apply(cmd history.Command) error {
	return m.active.log.Apply(m.active.graph, cmd)
}

// Record adds an already-applied command to the live document's history.
func (m *Manager) Record(cmd history.Command) {
	m.active.log.Record(cmd)
}

// Undo reverts the live document's most recent edit. Returns false when
// there is nothing to undo.
func (m *Manager) Undo() (bool, error) {
	return m.active.log.Undo(m.active.graph)
}

// Redo replays the live document's most recently undone edit. Returns false
// when there is nothing to redo.
func (m *Manager) Redo() (bool, error) {
	return m.active.log.Redo(m.active.graph)
}
