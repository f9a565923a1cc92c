package storage_test

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/storage"

	"github.com/stretchr/testify/assert"
)

// fileHeader builds a real multipart.FileHeader the way gin would hand it
// to a handler.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	assert.NoError(t, err)

	headers := form.File["file"]
	assert.Len(t, headers, 1)
	return headers[0]
}

func TestFileStore_Save_StoresUnderBucket(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	path, err := store.Save(fileHeader(t, "report.pdf", []byte("content")), storage.FormPolicy)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "forms/"))
	assert.True(t, strings.HasSuffix(path, "_report.pdf"))
}

func TestFileStore_Save_RejectsExtension(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	_, err := store.Save(fileHeader(t, "malware.exe", []byte("x")), storage.FormPolicy)

	assert.ErrorIs(t, err, storage.ErrExtensionNotAllowed)
}

func TestFileStore_Save_ExtensionCaseInsensitive(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	path, err := store.Save(fileHeader(t, "NOTES.TXT", []byte("x")), storage.FormPolicy)

	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_NOTES.TXT"))
}

func TestFileStore_Save_ZipAllowedOnlyForAssignments(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	_, err := store.Save(fileHeader(t, "bundle.zip", []byte("x")), storage.FormPolicy)
	assert.ErrorIs(t, err, storage.ErrExtensionNotAllowed)

	path, err := store.Save(fileHeader(t, "bundle.zip", []byte("x")), storage.CompletedAssignmentPolicy)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "completed_assignments/"))
}

func TestFileStore_Save_UniqueNames(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	header := fileHeader(t, "report.pdf", []byte("content"))

	first, err := store.Save(header, storage.FormPolicy)
	assert.NoError(t, err)
	second, err := store.Save(header, storage.FormPolicy)
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestFileStore_Remove(t *testing.T) {
	root := t.TempDir()
	store := storage.NewFileStore(root)

	path, err := store.Save(fileHeader(t, "report.pdf", []byte("content")), storage.FormPolicy)
	assert.NoError(t, err)

	assert.NoError(t, store.Remove(path))
	_, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(path)))
	assert.True(t, os.IsNotExist(statErr))

	// A second remove of the same path is not an error.
	assert.NoError(t, store.Remove(path))
	// Neither is removing nothing.
	assert.NoError(t, store.Remove(""))
}

func TestPolicy_SizeCap(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	big := make([]byte, storage.FormPolicy.MaxBytes+1)
	_, err := store.Save(fileHeader(t, "big.pdf", big), storage.FormPolicy)

	assert.ErrorIs(t, err, storage.ErrFileTooLarge)
}
