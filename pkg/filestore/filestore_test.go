package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{"pdf ok", "fatura.pdf", 1024, nil},
		{"uppercase extension ok", "FATURA.PDF", 1024, nil},
		{"jpeg ok", "tarama.jpeg", MaxUploadSize, nil},
		{"exe blocked", "fatura.exe", 1024, ErrInvalidFileExt},
		{"no extension blocked", "fatura", 1024, ErrInvalidFileExt},
		{"too large", "fatura.pdf", MaxUploadSize + 1, ErrFileTooLarge},
		{"empty file", "fatura.pdf", 0, ErrFileTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUpload(tc.filename, tc.size)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateUpload(%q, %d) = %v, want %v", tc.filename, tc.size, err, tc.wantErr)
			}
		})
	}
}

func TestLocalStoreSave(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStore(base, "/uploads/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.Save(context.Background(), "invoices", "Fatura.PDF", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/invoices/") {
		t.Fatalf("url = %q", url)
	}
	if !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("extension not kept lowercase: %q", url)
	}

	// The returned URL maps onto the file on disk
	onDisk := filepath.Join(base, "invoices", filepath.Base(url))
	data, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("content = %q", data)
	}

	// Saving the same name twice never collides
	url2, err := store.Save(context.Background(), "invoices", "Fatura.PDF", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url2 == url {
		t.Fatal("expected unique generated names")
	}
}

func TestLocalStoreSaveCancelledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, "invoices", "fatura.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
