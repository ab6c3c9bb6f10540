// Package blob stores uploaded images on a waffle storage backend and
// returns a public URL for each.
package blob

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 << 20

var (
	ErrTooLarge        = fmt.Errorf("file exceeds %d bytes", MaxImageBytes)
	ErrUnsupportedType = errors.New("only image uploads are allowed")
	ErrEmpty           = errors.New("file is empty")
)

// Store persists opaque blobs.
type Store interface {
	// Put stores the content under folder and returns its public URL.
	Put(ctx context.Context, folder string, r io.Reader) (string, error)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore accepts images of at most MaxImageBytes and writes them to backend.
type ImageStore struct {
	backend storage.Store
}

func NewImageStore(backend storage.Store) *ImageStore {
	return &ImageStore{backend: backend}
}

// NewLocal stores images below dir, served publicly under baseURL
// (e.g. "http://localhost:8080/uploads").
func NewLocal(dir, baseURL string) (*ImageStore, error) {
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: dir, BaseURL: baseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open upload directory: %w", err)
	}
	return NewImageStore(local), nil
}

// Put sniffs the content type and rejects anything but images. The content
// is buffered up to the size cap so nothing is written for a rejected upload.
func (s *ImageStore) Put(ctx context.Context, folder string, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(head) == 0 {
		return "", ErrEmpty
	}
	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(br, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", ErrTooLarge
	}

	// Rooting the folder drops any ".." before it reaches the backend.
	key := path.Join(path.Clean("/"+folder)[1:], uuid.New().String()+ext)
	err = s.backend.PutBytes(ctx, key, data, &storage.PutOptions{
		ContentType: contentType,
		IfNotExists: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return s.backend.URL(key), nil
}
