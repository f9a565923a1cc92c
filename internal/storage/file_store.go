package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrExtensionNotAllowed is returned when a file's extension is not
	// in the slot policy's allow-list
	ErrExtensionNotAllowed = errors.New("file extension not allowed")

	// ErrFileTooLarge is returned when a file exceeds the slot policy's
	// size cap
	ErrFileTooLarge = errors.New("file size exceeds limit")
)

// Policy is the acceptance policy for one file slot: which extensions are
// accepted, how large the file may be, and which bucket directory holds it.
type Policy struct {
	Bucket     string
	Extensions []string
	MaxBytes   int64
}

// FormPolicy governs the admin-attached task document slot.
var FormPolicy = Policy{
	Bucket:     "forms",
	Extensions: []string{"pdf", "doc", "docx", "txt"},
	MaxBytes:   5 << 20,
}

// CompletedAssignmentPolicy governs the user submission slot. Broader
// allow-list and a higher cap than the admin form slot.
var CompletedAssignmentPolicy = Policy{
	Bucket:     "completed_assignments",
	Extensions: []string{"pdf", "doc", "docx", "txt", "zip", "rar", "jpg", "jpeg", "png"},
	MaxBytes:   10 << 20,
}

// Allows reports whether the policy accepts the given filename extension.
func (p Policy) Allows(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range p.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

type StoreInterface interface {
	Save(file *multipart.FileHeader, policy Policy) (string, error)
	Remove(path string) error
}

// FileStore persists uploaded documents under a root directory, one bucket
// per slot. Stored paths are returned relative to the root so they can be
// handed to clients as downloadable references.
type FileStore struct {
	root string
}

var _ StoreInterface = (*FileStore)(nil)

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Save validates the upload against the slot policy and writes it into the
// policy's bucket under a collision-resistant name. The bucket directory is
// created on first use; failure to create it fails the request.
func (s *FileStore) Save(file *multipart.FileHeader, policy Policy) (string, error) {
	if !policy.Allows(filepath.Ext(file.Filename)) {
		return "", ErrExtensionNotAllowed
	}
	if file.Size > policy.MaxBytes {
		return "", ErrFileTooLarge
	}

	dir := filepath.Join(s.root, policy.Bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}

	name := uuid.New().String() + "_" + filepath.Base(file.Filename)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write stored file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(policy.Bucket, name)), nil
}

// Remove deletes a previously stored file by its relative path. A missing
// file is not an error; superseded files may already be gone.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
