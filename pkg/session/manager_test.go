package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/odvcencio/scened/pkg/history"
	"github.com/odvcencio/scened/pkg/scene"
	"github.com/odvcencio/scened/pkg/storage"
)

// memStore is an in-memory Store that round-trips documents through the
// snapshot codec, with injectable failures.
type memStore struct {
	files    map[string][]byte
	names    map[string]string
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string][]byte), names: make(map[string]string)}
}

func (s *memStore) Save(path string, doc *storage.Document) error {
	if s.failSave {
		return fmt.Errorf("save %s: disk full", path)
	}
	s.files[path] = scene.MarshalSnapshot(doc.Snapshot)
	s.names[path] = doc.Name
	return nil
}

func (s *memStore) Load(path string) (*storage.Document, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", path, storage.ErrNotExist)
	}
	snap, err := scene.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, storage.ErrCorrupt)
	}
	return &storage.Document{Name: s.names[path], Snapshot: snap}, nil
}

func newTestManager() (*Manager, *memStore) {
	store := newMemStore()
	return NewManager(store, DefaultConfig()), store
}

func rootOf(t *testing.T, m *Manager) scene.EntityID {
	t.Helper()
	roots := m.Graph().Roots()
	if len(roots) != 1 {
		t.Fatalf("expected a single root, got %v", roots)
	}
	return roots[0]
}

func renameRoot(t *testing.T, m *Manager, name string) {
	t.Helper()
	cmd, err := history.SetComponent(m.Graph(), rootOf(t, m), scene.Name{Value: name})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Apply(cmd); err != nil {
		t.Fatal(err)
	}
}

func rootName(t *testing.T, m *Manager) string {
	t.Helper()
	c, ok, err := m.Graph().Component(rootOf(t, m), scene.KindName)
	if err != nil || !ok {
		t.Fatalf("root has no name: ok=%v err=%v", ok, err)
	}
	return c.(scene.Name).Value
}

func TestSessionStartsWithOneLiveDocument(t *testing.T) {
	m, _ := newTestManager()

	docs := m.Documents()
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if !docs[0].Active || docs[0].ID != m.ActiveDocument() {
		t.Fatal("the initial document should be active")
	}
	if docs[0].Name != "Untitled" {
		t.Fatalf("expected Untitled, got %q", docs[0].Name)
	}
	if docs[0].Modified {
		t.Fatal("a fresh document should not be modified")
	}
	if rootName(t, m) != "Root" {
		t.Fatalf("fresh document root should be named Root, got %q", rootName(t, m))
	}
}

func TestRenameSurvivesTabSwitch(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()

	renameRoot(t, m, "Level")

	b := m.New()
	if err := m.Activate(b); err != nil {
		t.Fatal(err)
	}
	if m.ActiveDocument() != b {
		t.Fatal("activate did not switch")
	}
	if rootName(t, m) != "Root" {
		t.Fatalf("document B should be fresh, got root %q", rootName(t, m))
	}

	if err := m.Activate(a); err != nil {
		t.Fatal(err)
	}
	if got := rootName(t, m); got != "Level" {
		t.Fatalf("edit lost across tab switch: root is %q, want Level", got)
	}
}

func TestActivateRoundTripPreservesState(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()
	renameRoot(t, m, "Town")
	child, cmd, err := history.Create(m.Graph(), rootOf(t, m))
	if err != nil {
		t.Fatal(err)
	}
	m.Record(cmd)
	setCmd, err := history.SetComponent(m.Graph(), child, scene.Node{Class: "npc"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Apply(setCmd); err != nil {
		t.Fatal(err)
	}

	before := scene.MarshalSnapshot(scene.Capture(m.Graph()))

	b := m.New()
	if err := m.Activate(b); err != nil {
		t.Fatal(err)
	}
	if err := m.Activate(a); err != nil {
		t.Fatal(err)
	}

	after := scene.MarshalSnapshot(scene.Capture(m.Graph()))
	if string(before) != string(after) {
		t.Fatalf("switch away and back changed the graph:\n%s\n----\n%s", before, after)
	}
}

func TestActivateActiveIsNoOp(t *testing.T) {
	m, _ := newTestManager()
	if err := m.Activate(m.ActiveDocument()); err != nil {
		t.Fatal(err)
	}
}

func TestActivateUnknownDocument(t *testing.T) {
	m, _ := newTestManager()
	if err := m.Activate("no-such-id"); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument, got %v", err)
	}
}

func TestHistoryIsPerDocument(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()
	renameRoot(t, m, "Level")

	b := m.New()
	if err := m.Activate(b); err != nil {
		t.Fatal(err)
	}
	// B has its own empty history; undo must not touch A's edit.
	if ok, err := m.Undo(); ok || err != nil {
		t.Fatalf("undo on fresh document: ok=%v err=%v", ok, err)
	}

	if err := m.Activate(a); err != nil {
		t.Fatal(err)
	}
	if !m.History().CanUndo() {
		t.Fatal("A's history was lost across the switch")
	}
	if ok, err := m.Undo(); !ok || err != nil {
		t.Fatalf("undo on A: ok=%v err=%v", ok, err)
	}
	if got := rootName(t, m); got != "Root" {
		t.Fatalf("undo after switch-back applied to the wrong graph: root is %q", got)
	}
	if ok, err := m.Redo(); !ok || err != nil {
		t.Fatalf("redo on A: ok=%v err=%v", ok, err)
	}
	if got := rootName(t, m); got != "Level" {
		t.Fatalf("redo did not restore the edit: root is %q", got)
	}
}

func TestOpenLoadsWithoutActivating(t *testing.T) {
	m, _ := newTestManager()
	active := m.ActiveDocument()

	// Persist a document to open.
	renameRoot(t, m, "Saved Scene")
	if err := m.SaveAs(active, "scenes/a.scene"); err != nil {
		t.Fatal(err)
	}

	id, err := m.Open("scenes/a.scene")
	if err != nil {
		t.Fatal(err)
	}
	if m.ActiveDocument() != active {
		t.Fatal("open must not activate the new document")
	}

	if err := m.Activate(id); err != nil {
		t.Fatal(err)
	}
	if got := rootName(t, m); got != "Saved Scene" {
		t.Fatalf("loaded document root is %q, want Saved Scene", got)
	}
}

func TestOpenMalformedDataFails(t *testing.T) {
	m, store := newTestManager()
	store.files["bad.scene"] = []byte("garbage")
	store.names["bad.scene"] = "bad"

	if _, err := m.Open("bad.scene"); !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected corrupt load error, got %v", err)
	}
	if len(m.Documents()) != 1 {
		t.Fatal("failed open changed the session")
	}
}

func TestActivateFailureKeepsLiveDocument(t *testing.T) {
	m, store := newTestManager()
	a := m.ActiveDocument()
	renameRoot(t, m, "Keep")

	// Passes the text-layout checks on load but cannot be restored: the
	// child record precedes its parent.
	store.files["bad.scene"] = []byte("scened-snapshot 1\nentities 2\n\nentity 1.1 0.1\n\nentity 0.1 -\n")
	store.names["bad.scene"] = "Bad"

	id, err := m.Open("bad.scene")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Activate(id); !errors.Is(err, scene.ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
	}

	if m.ActiveDocument() != a {
		t.Fatal("failed activate switched the live document")
	}
	if got := rootName(t, m); got != "Keep" {
		t.Fatalf("failed activate disturbed the live graph: root is %q", got)
	}
	if !m.History().CanUndo() {
		t.Fatal("failed activate dropped the live document's history")
	}
}

func TestSaveClearsModifiedAndFailureKeepsIt(t *testing.T) {
	m, store := newTestManager()
	id := m.ActiveDocument()

	renameRoot(t, m, "Level")
	if mod, _ := m.Modified(id); !mod {
		t.Fatal("edit should mark the document modified")
	}

	store.failSave = true
	if err := m.SaveAs(id, "a.scene"); err == nil {
		t.Fatal("expected save failure")
	}
	if mod, _ := m.Modified(id); !mod {
		t.Fatal("failed save must leave the modified flag set")
	}

	store.failSave = false
	if err := m.SaveAs(id, "a.scene"); err != nil {
		t.Fatal(err)
	}
	if mod, _ := m.Modified(id); mod {
		t.Fatal("successful save should clear the modified flag")
	}
}

func TestUndoBackToSavedStateClearsModified(t *testing.T) {
	m, _ := newTestManager()
	id := m.ActiveDocument()
	if err := m.SaveAs(id, "a.scene"); err != nil {
		t.Fatal(err)
	}

	renameRoot(t, m, "Level")
	if mod, _ := m.Modified(id); !mod {
		t.Fatal("edit should mark the document modified")
	}
	if ok, err := m.Undo(); !ok || err != nil {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if mod, _ := m.Modified(id); mod {
		t.Fatal("undoing back to the saved state should clear the modified flag")
	}
}

func TestSaveAsRenamesToFileStem(t *testing.T) {
	m, store := newTestManager()
	id := m.ActiveDocument()

	store.failSave = true
	if err := m.SaveAs(id, "scenes/town.scene"); err == nil {
		t.Fatal("expected save failure")
	}
	if got := m.Documents()[0].Name; got != "Untitled" {
		t.Fatalf("failed save must not rename the document, got %q", got)
	}

	store.failSave = false
	if err := m.SaveAs(id, "scenes/town.scene"); err != nil {
		t.Fatal(err)
	}
	if got := m.Documents()[0].Name; got != "town" {
		t.Fatalf("expected name town after save as, got %q", got)
	}
	if got := store.names["scenes/town.scene"]; got != "town" {
		t.Fatalf("persisted name should match the new name, got %q", got)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	m, _ := newTestManager()
	if err := m.Save(m.ActiveDocument()); !errors.Is(err, ErrNoPath) {
		t.Fatalf("expected ErrNoPath, got %v", err)
	}
}

func TestSaveDormantDocument(t *testing.T) {
	m, store := newTestManager()
	a := m.ActiveDocument()
	renameRoot(t, m, "Dormant Scene")
	if err := m.SaveAs(a, "a.scene"); err != nil {
		t.Fatal(err)
	}

	// Switch away, edit nothing, save A while dormant.
	b := m.New()
	if err := m.Activate(b); err != nil {
		t.Fatal(err)
	}
	delete(store.files, "a.scene")
	if err := m.Save(a); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.files["a.scene"]; !ok {
		t.Fatal("dormant save did not persist")
	}
}

func TestCloseLastDocumentSynthesizesFresh(t *testing.T) {
	m, _ := newTestManager()
	renameRoot(t, m, "Doomed")

	if err := m.Close(m.ActiveDocument()); err != nil {
		t.Fatal(err)
	}
	docs := m.Documents()
	if len(docs) != 1 {
		t.Fatalf("session dropped to %d documents", len(docs))
	}
	if !docs[0].Active {
		t.Fatal("replacement document should be live")
	}
	if got := rootName(t, m); got != "Root" {
		t.Fatalf("replacement should be fresh, got root %q", got)
	}
}

func TestCloseActiveActivatesNeighbor(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()
	b := m.New()
	c := m.New()

	if err := m.Close(a); err != nil {
		t.Fatal(err)
	}
	if m.ActiveDocument() != b {
		t.Fatal("closing the active document should activate the next one")
	}
	docs := m.Documents()
	if len(docs) != 2 || docs[0].ID != b || docs[1].ID != c {
		t.Fatalf("unexpected document order after close: %+v", docs)
	}
}

func TestCloseInactiveKeepsActive(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()
	b := m.New()

	if err := m.Close(b); err != nil {
		t.Fatal(err)
	}
	if m.ActiveDocument() != a {
		t.Fatal("closing an inactive document changed the active one")
	}
}

func TestCloseUnknownDocument(t *testing.T) {
	m, _ := newTestManager()
	if err := m.Close("no-such-id"); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument, got %v", err)
	}
}

func TestCloseDiscardsUnsavedEdits(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()
	renameRoot(t, m, "Saved")
	if err := m.SaveAs(a, "a.scene"); err != nil {
		t.Fatal(err)
	}
	renameRoot(t, m, "Unsaved")

	if err := m.Close(a); err != nil {
		t.Fatal(err)
	}

	// Reopening shows the saved state, not the discarded edit.
	id, err := m.Open("a.scene")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Activate(id); err != nil {
		t.Fatal(err)
	}
	if got := rootName(t, m); got != "Saved" {
		t.Fatalf("expected saved state after discard, got %q", got)
	}
}

func TestDocumentOrderIsStable(t *testing.T) {
	m, _ := newTestManager()
	a := m.ActiveDocument()
	b := m.New()
	c := m.New()

	if err := m.Activate(c); err != nil {
		t.Fatal(err)
	}
	if err := m.Activate(b); err != nil {
		t.Fatal(err)
	}

	docs := m.Documents()
	want := []DocumentID{a, b, c}
	for i, id := range want {
		if docs[i].ID != id {
			t.Fatalf("activate reordered documents: %+v", docs)
		}
	}
}

func TestUntitledNaming(t *testing.T) {
	m, _ := newTestManager()
	m.New()
	m.New()

	docs := m.Documents()
	want := []string{"Untitled", "Untitled 2", "Untitled 3"}
	for i, name := range want {
		if docs[i].Name != name {
			t.Fatalf("expected names %v, got %+v", want, docs)
		}
	}
}

type recordingObserver struct {
	opened []string
	saved  []string
}

func (r *recordingObserver) DocumentOpened(path string) { r.opened = append(r.opened, path) }
func (r *recordingObserver) DocumentSaved(path string)  { r.saved = append(r.saved, path) }

func TestObserverEvents(t *testing.T) {
	m, _ := newTestManager()
	obs := &recordingObserver{}
	m.AddObserver(obs)

	id := m.ActiveDocument()
	if err := m.SaveAs(id, "a.scene"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Open("a.scene"); err != nil {
		t.Fatal(err)
	}

	if len(obs.saved) != 1 || obs.saved[0] != "a.scene" {
		t.Fatalf("expected one saved event, got %v", obs.saved)
	}
	if len(obs.opened) != 1 || obs.opened[0] != "a.scene" {
		t.Fatalf("expected one opened event, got %v", obs.opened)
	}
}
