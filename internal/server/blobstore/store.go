// Package blobstore keeps attachment content outside the database. A stored
// blob is addressed by an opaque reference generated at write time; the
// reference is what the attachments table records and what URLs are built
// from.
package blobstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Blob describes content that has been durably written.
type Blob struct {
	Ref      string
	Size     int64
	MimeType string
}

// Store writes and removes attachment content.
//
// Put streams r into a new blob. The reference never collides with an
// existing one and never contains path separators. When r yields more than
// the store's size limit, nothing is kept and common.ErrPayloadTooLarge is
// returned. An empty mimeType (or application/octet-stream) is replaced by
// a type sniffed from the content.
//
// Delete removes a blob; deleting a missing blob is not an error.
type Store interface {
	Put(ctx context.Context, originalName string, r io.Reader, mimeType string) (Blob, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// sniffLen is how much content mimetype needs for detection.
const sniffLen = 3072

const genericMIME = "application/octet-stream"

var (
	extRx = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)
	refRx = regexp.MustCompile(`^[0-9]+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,10})?$`)
)

// seams for tests
var (
	now     = time.Now
	newUUID = uuid.NewString
)

// newRef builds "<unix millis>-<uuid><ext>". The extension of originalName is
// kept (lowercased) only when it is short and alphanumeric.
func newRef(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := filepath.Ext(base)
	if !extRx.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now().UnixMilli(), newUUID(), strings.ToLower(ext))
}

// ValidRef reports whether ref has the shape produced by this package.
func ValidRef(ref string) bool {
	return refRx.MatchString(ref)
}

func buildURL(baseURL, ref string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(ref)
}

// detectMIME keeps a specific declared type and otherwise sniffs the head of
// br without consuming it.
func detectMIME(br *bufio.Reader, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != genericMIME {
		return declared
	}
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return genericMIME
	}
	return mimetype.Detect(head).String()
}
