package storage

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lukechampine.com/blake3"

	"github.com/odvcencio/scened/pkg/scene"
)

// fileMagic prefixes every saved document: "scenedoc <version> <len>\0"
// followed by the zstd-compressed body.
const (
	fileMagic   = "scenedoc"
	fileVersion = 1
)

// FileStore persists documents as individual files. Writes are atomic (temp
// file + rename); the body carries a blake3 digest of the snapshot that is
// verified on load.
type FileStore struct{}

// NewFileStore returns a Store backed by the local filesystem.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Save writes the document to path, creating parent directories as needed.
func (fs *FileStore) Save(path string, doc *Document) error {
	snap := scene.MarshalSnapshot(doc.Snapshot)
	digest := blake3.Sum256(snap)

	var body bytes.Buffer
	fmt.Fprintf(&body, "name %s\n", strconv.Quote(doc.Name))
	fmt.Fprintf(&body, "digest %s\n", hex.EncodeToString(digest[:]))
	body.WriteByte('\n')
	body.Write(snap)

	compressed, err := compressZstd(body.Bytes())
	if err != nil {
		return fmt.Errorf("save document: compress: %w", err)
	}

	envelope := fmt.Sprintf("%s %d %d\x00", fileMagic, fileVersion, body.Len())
	raw := append([]byte(envelope), compressed...)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save document: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".scenedoc-tmp-*")
	if err != nil {
		return fmt.Errorf("save document: tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save document: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save document: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save document: rename: %w", err)
	}
	return nil
}

// Load reads and verifies the document at path.
func (fs *FileStore) Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return nil, fmt.Errorf("load %s: missing envelope terminator: %w", path, ErrCorrupt)
	}
	parts := strings.Fields(string(raw[:nul]))
	if len(parts) != 3 || parts[0] != fileMagic {
		return nil, fmt.Errorf("load %s: bad envelope %q: %w", path, string(raw[:nul]), ErrCorrupt)
	}
	version, err := strconv.Atoi(parts[1])
	if err != nil || version != fileVersion {
		return nil, fmt.Errorf("load %s: unsupported version %q: %w", path, parts[1], ErrCorrupt)
	}
	size, err := strconv.Atoi(parts[2])
	if err != nil || size < 0 {
		return nil, fmt.Errorf("load %s: bad body length %q: %w", path, parts[2], ErrCorrupt)
	}

	body, err := decompressZstd(raw[nul+1:])
	if err != nil {
		return nil, fmt.Errorf("load %s: decompress: %v: %w", path, err, ErrCorrupt)
	}
	if len(body) != size {
		return nil, fmt.Errorf("load %s: body length %d, envelope says %d: %w", path, len(body), size, ErrCorrupt)
	}

	idx := bytes.Index(body, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("load %s: missing header separator: %w", path, ErrCorrupt)
	}
	header := string(body[:idx])
	snapText := body[idx+2:]

	doc := &Document{}
	var wantDigest string
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("load %s: malformed header line %q: %w", path, line, ErrCorrupt)
		}
		switch key {
		case "name":
			name, err := strconv.Unquote(val)
			if err != nil {
				return nil, fmt.Errorf("load %s: bad name %q: %w", path, val, ErrCorrupt)
			}
			doc.Name = name
		case "digest":
			wantDigest = val
		default:
			return nil, fmt.Errorf("load %s: unknown header key %q: %w", path, key, ErrCorrupt)
		}
	}

	got := blake3.Sum256(snapText)
	if wantDigest != hex.EncodeToString(got[:]) {
		return nil, fmt.Errorf("load %s: digest mismatch: %w", path, ErrCorrupt)
	}

	snap, err := scene.UnmarshalSnapshot(snapText)
	if err != nil {
		return nil, fmt.Errorf("load %s: %v: %w", path, err, ErrCorrupt)
	}
	doc.Snapshot = snap
	return doc, nil
}
