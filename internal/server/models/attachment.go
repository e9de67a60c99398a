package models

import "io"

// Attachment is the metadata row of one uploaded file. The bytes live in the
// blob store under StoredName.
type Attachment struct {
	ID         int64
	ClaimID    int64
	FileName   string
	StoredName string
	Size       int64
	MimeType   string
}

// AttachmentView is how an attachment is exposed on read paths.
type AttachmentView struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Upload is one file part of a submission. Size is the size announced by the
// client, or -1 when unknown; the blob store measures the real size.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}
