package radcap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTestSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	data := `[
  {"file_paths": ["a.png", "a_alt.png"], "captions": ["normal ankle", "no fracture"]},
  {"file_paths": ["b.png"], "captions": ["soft tissue swelling"]}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	entries, err := LoadTestSet(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	p, err := entries[0].ImagePath()
	require.NoError(t, err)
	assert.Equal(t, "a.png", p)

	ref, err := entries[1].Reference()
	require.NoError(t, err)
	assert.Equal(t, "soft tissue swelling", ref)
}

func TestLoadTestSetMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"file_paths": []}`), 0644))

	_, err := LoadTestSet(path)
	assert.Error(t, err)
}

func TestEmptyEntry(t *testing.T) {
	var e TestEntry

	_, err := e.ImagePath()
	assert.Error(t, err)

	_, err = e.Reference()
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	entries := make([]TestEntry, 45)

	assert.Len(t, Window(entries, 40, 50), 5)
	assert.Len(t, Window(entries, 0, 10), 10)
	assert.Empty(t, Window(entries, 50, 60))
	assert.Empty(t, Window(entries, 5, 5))
	assert.Empty(t, Window(nil, 40, 50))
}
