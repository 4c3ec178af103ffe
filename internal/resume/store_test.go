package resume

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	rec, err := ReadFile(writeFile(t, "Jane_CV.TXT", "Jane Doe\nGo developer"))

	require.NoError(t, err)
	assert.Equal(t, "Jane_CV.TXT", rec.Name)
	assert.Equal(t, int64(21), rec.Size)
	assert.Equal(t, "Jane Doe\nGo developer", rec.Content)
	assert.Equal(t, "text/plain", rec.Type)
}

func TestReadFile_RejectsUnsupportedType(t *testing.T) {
	_, err := ReadFile(writeFile(t, "cv.png", "x"))
	assert.ErrorContains(t, err, "unsupported résumé type")
}

func TestReadFile_MimeTypes(t *testing.T) {
	for ext, want := range map[string]string{
		".pdf":  "application/pdf",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	} {
		rec, err := ReadFile(writeFile(t, "cv"+ext, "content"))
		require.NoError(t, err)
		assert.Equal(t, want, rec.Type, ext)
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "data"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrEmpty)

	rec := Record{Name: "cv.txt", Size: 2, Content: "CV", Type: "text/plain"}
	require.NoError(t, store.Save(rec))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrEmpty)

	assert.NoError(t, store.Clear())
}

func TestStore_SaveReplaces(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save(Record{Name: "a.txt", Content: "A"}))
	require.NoError(t, store.Save(Record{Name: "b.txt", Content: "B"}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.Name)
}

func TestStore_CorruptSlot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, slotFile), []byte("{not json"), 0o600))

	_, err := NewStore(dir).Load()
	assert.ErrorContains(t, err, "corrupt")
}

func TestStore_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, NewStore(dir).Save(Record{Name: "cv.txt", Content: "same"}))
		}()
	}
	wg.Wait()

	got, err := NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "same", got.Content)
}

func TestRecord_Describe(t *testing.T) {
	assert.Equal(t, "cv.pdf (2.0 KB)", Record{Name: "cv.pdf", Size: 2048}.Describe())
}
