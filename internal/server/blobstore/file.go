package blobstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/claimkeeper/internal/common"
	"github.com/dmitrijs2005/claimkeeper/internal/filex"
)

// FileStore keeps blobs as files in a single directory, named by their ref.
type FileStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewFileStore creates dir if needed.
func NewFileStore(dir, baseURL string, maxSize int64) (*FileStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return &FileStore{dir: abs, baseURL: baseURL, maxSize: maxSize}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Put(ctx context.Context, originalName string, r io.Reader, mimeType string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}

	ref := newRef(originalName)
	path := filepath.Join(s.dir, ref)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Blob{}, fmt.Errorf("%w: create %s: %w", common.ErrStorage, ref, err)
	}

	br := bufio.NewReaderSize(r, sniffLen)
	mime := detectMIME(br, mimeType)

	n, err := io.CopyN(f, br, s.maxSize+1)
	if err != nil && !errors.Is(err, io.EOF) {
		_ = f.Close()
		_ = os.Remove(path)
		return Blob{}, fmt.Errorf("%w: write %s: %w", common.ErrStorage, ref, err)
	}
	if n > s.maxSize {
		_ = f.Close()
		_ = os.Remove(path)
		return Blob{}, fmt.Errorf("%w: %q is larger than %d bytes", common.ErrPayloadTooLarge, originalName, s.maxSize)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return Blob{}, fmt.Errorf("%w: close %s: %w", common.ErrStorage, ref, err)
	}

	return Blob{Ref: ref, Size: n, MimeType: mime}, nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	if !ValidRef(ref) {
		return fmt.Errorf("%w: invalid ref %q", common.ErrStorage, ref)
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %w", common.ErrStorage, ref, err)
	}
	return nil
}

func (s *FileStore) URL(ref string) string {
	return buildURL(s.baseURL, ref)
}
