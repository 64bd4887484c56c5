package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/amishk599/offerradar/internal/model"
)

// ErrLocked is returned by Lock when another run holds the store.
var ErrLocked = errors.New("match store is locked by another run")

// document is the persisted JSON shape.
type document struct {
	Matches []model.MatchRecord `json:"matches"`
}

// FileStore persists State as a single JSON document. Load reads it once at
// run start; Save replaces it atomically at run end.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the location of the JSON document.
func (s *FileStore) Path() string { return s.path }

// Lock takes an exclusive advisory lock so two runs never interleave their
// load and save. It fails fast with ErrLocked instead of waiting.
func (s *FileStore) Lock() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &model.StorePersistenceError{Op: "lock", Path: s.path, Err: err}
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return &model.StorePersistenceError{Op: "lock", Path: s.path, Err: err}
	}
	if !ok {
		return &model.StorePersistenceError{Op: "lock", Path: s.path, Err: ErrLocked}
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (s *FileStore) Unlock() error {
	return s.lock.Unlock()
}

// Load reads the persisted state. A missing file is a first run and yields an
// empty state; an unreadable or corrupt file is a *model.StorePersistenceError.
func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewState(nil)
	}
	if err != nil {
		return State{}, &model.StorePersistenceError{Op: "load", Path: s.path, Err: err}
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return State{}, &model.StorePersistenceError{Op: "load", Path: s.path, Err: fmt.Errorf("decode: %w", err)}
	}

	st, err := NewState(doc.Matches)
	if err != nil {
		return State{}, &model.StorePersistenceError{Op: "load", Path: s.path, Err: err}
	}
	return st, nil
}

// Save writes state to a temp file in the same directory, syncs it and renames
// it over the target. Either the new state is fully on disk or the old file is
// left untouched.
func (s *FileStore) Save(st State) error {
	data, err := Encode(st)
	if err != nil {
		return &model.StorePersistenceError{Op: "save", Path: s.path, Err: err}
	}
	if err := WriteFileAtomic(s.path, data); err != nil {
		return &model.StorePersistenceError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Encode renders state in its canonical persisted form.
func Encode(st State) ([]byte, error) {
	doc := document{Matches: st.Records()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode match store: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFileAtomic replaces path with data via temp file, fsync and rename.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return err
	}

	// Persist the rename itself. Not every platform can fsync a directory.
	if d, derr := os.Open(dir); derr == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
