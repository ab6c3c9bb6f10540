package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestImageStorePut(t *testing.T) {
	backend := storage.NewMemory(storage.MemoryConfig{BaseURL: "http://localhost:8080/uploads"})
	store := NewImageStore(backend)
	ctx := context.Background()

	t.Run("stores image and returns url", func(t *testing.T) {
		url, err := store.Put(ctx, "proofs/exp-1", bytes.NewReader(pngHeader))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		prefix := "http://localhost:8080/uploads/"
		if !strings.HasPrefix(url, prefix+"proofs/exp-1/") || !strings.HasSuffix(url, ".png") {
			t.Fatalf("Unexpected url %q", url)
		}
		info, err := backend.Head(ctx, strings.TrimPrefix(url, prefix))
		if err != nil {
			t.Fatalf("Head failed: %v", err)
		}
		if info.ContentType != "image/png" || info.Size != int64(len(pngHeader)) {
			t.Errorf("Unexpected object %+v", info)
		}
	})

	tests := []struct {
		name    string
		folder  string
		content []byte
		wantErr error
	}{
		{"rejects non images", "proofs", []byte("hello, plain text"), ErrUnsupportedType},
		{"rejects empty", "proofs", nil, ErrEmpty},
		{"rejects oversized", "big", append(append([]byte{}, pngHeader...), make([]byte, MaxImageBytes)...), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := backend.Count()
			_, err := store.Put(ctx, tt.folder, bytes.NewReader(tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if backend.Count() != before {
				t.Errorf("Expected nothing stored, have %d objects (was %d)", backend.Count(), before)
			}
		})
	}

	t.Run("folder cannot escape root", func(t *testing.T) {
		url, err := store.Put(ctx, "../../etc", bytes.NewReader(pngHeader))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !strings.HasPrefix(url, "http://localhost:8080/uploads/etc/") {
			t.Errorf("Unexpected url %q", url)
		}
	})
}

func TestNewLocal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	url, err := store.Put(context.Background(), "proofs/exp-1", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/proofs/exp-1/") {
		t.Fatalf("Unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "proofs", "exp-1", filepath.Base(url)))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Error("Stored content differs")
	}
}
