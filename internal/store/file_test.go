package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/offerradar/internal/model"
)

func TestFileStore_LoadMissingIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "matches.json"))

	st, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Len())
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "matches.json")
	s := NewFileStore(path)

	st, err := NewState([]model.MatchRecord{record("a"), record("b")})
	require.NoError(t, err)
	require.NoError(t, s.Save(st))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, st.Records(), loaded.Records())

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(loaded))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "save(load()) must be byte-identical")
}

func TestFileStore_EmptyStateEncodesEmptyList(t *testing.T) {
	st, err := NewState(nil)
	require.NoError(t, err)

	data, err := Encode(st)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"matches\": []\n}\n", string(data))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)

	var perr *model.StorePersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
	assert.Equal(t, path, perr.Path)
}

func TestFileStore_DuplicateIDsAreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.json")
	st, err := NewState([]model.MatchRecord{record("a")})
	require.NoError(t, err)
	data, err := Encode(st)
	require.NoError(t, err)

	// Splice the single record in twice.
	doubled := `{"matches":[` + recordJSON(t, data) + `,` + recordJSON(t, data) + `]}`
	require.NoError(t, os.WriteFile(path, []byte(doubled), 0o644))

	_, err = NewFileStore(path).Load()
	var perr *model.StorePersistenceError
	require.ErrorAs(t, err, &perr)
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "matches.json"))
	st, err := NewState([]model.MatchRecord{record("a")})
	require.NoError(t, err)

	require.NoError(t, s.Save(st))
	require.NoError(t, s.Save(Merge(st, []model.MatchRecord{record("b")})))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "matches.json", entries[0].Name())
}

func TestFileStore_FailedSaveKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matches.json")
	s := NewFileStore(path)
	st, err := NewState([]model.MatchRecord{record("a")})
	require.NoError(t, err)
	require.NoError(t, s.Save(st))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A directory in place of the target makes the rename fail.
	blocked := NewFileStore(filepath.Join(dir, "sub"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "child"), 0o755))
	err = blocked.Save(st)
	var perr *model.StorePersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "save", perr.Op)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestFileStore_LockContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.json")
	a := NewFileStore(path)
	b := NewFileStore(path)

	require.NoError(t, a.Lock())
	err := b.Lock()
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, a.Unlock())
	require.NoError(t, b.Lock())
	require.NoError(t, b.Unlock())
}

// recordJSON extracts the first record object from an encoded single-record store.
func recordJSON(t *testing.T, doc []byte) string {
	t.Helper()
	s := string(doc)
	start := len("{\n  \"matches\": [\n")
	end := len(s) - len("\n  ]\n}\n")
	require.Greater(t, end, start)
	return s[start:end]
}
