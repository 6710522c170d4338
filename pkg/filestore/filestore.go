package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the largest invoice file accepted, client and server side.
const MaxUploadSize = 10 * 1024 * 1024 // 10MB

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var (
	ErrFileTooLarge   = errors.New("dosya boyutu 10MB'ı aşamaz")
	ErrInvalidFileExt = errors.New("yalnızca pdf, jpg, jpeg veya png dosyaları kabul edilir")
)

// ValidateUpload re-checks what the client is expected to have validated
// already. Client checks are bypassable, so this runs on every upload.
func ValidateUpload(filename string, size int64) error {
	if size <= 0 || size > MaxUploadSize {
		return ErrFileTooLarge
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrInvalidFileExt
	}
	return nil
}

// Store persists uploaded files and returns a URL the client can fetch them at.
type Store interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}

// LocalStore writes uploads under a base directory on local disk and serves
// them under a public path prefix.
type LocalStore struct {
	baseDir   string
	publicURL string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Save writes the file with a generated unique name, keeping the original
// extension.
func (s *LocalStore) Save(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.baseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(r, MaxUploadSize+1)); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.publicURL + "/" + folder + "/" + name, nil
}
