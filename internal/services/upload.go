package services

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/lumora/eduhub-backend/internal/apperr"
)

type UploadKind string

const (
	UploadKindVideo UploadKind = "video"
	UploadKindPDF   UploadKind = "pdf"
	UploadKindCover UploadKind = "cover"
)

const (
	MaxVideoBytes    = 500 << 20
	MaxDocumentBytes = 50 << 20
	MaxImageBytes    = 10 << 20
)

var videoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".mkv":  true,
	".webm": true,
}

type UploadedFileInfo struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Reader       io.Reader
}

// ValidateUpload runs every check before any byte reaches storage: filename
// safety, per-type extension allow-list, size ceiling, and MIME prefix.
func ValidateUpload(kind UploadKind, f UploadedFileInfo) error {
	field := string(kind)
	if f.OriginalName == "" {
		return apperr.Validation(field, "missing filename")
	}
	if strings.ContainsAny(f.OriginalName, `/\`) || strings.Contains(f.OriginalName, "..") || strings.ContainsRune(f.OriginalName, 0) {
		return apperr.Validationf(field, "unsafe filename %q", f.OriginalName)
	}
	if f.SizeBytes <= 0 {
		return apperr.Validation(field, "empty upload")
	}

	ext := strings.ToLower(filepath.Ext(f.OriginalName))
	mime := strings.ToLower(strings.TrimSpace(f.MimeType))

	switch kind {
	case UploadKindVideo:
		if !videoExts[ext] {
			return apperr.Validationf(field, "extension %q is not an allowed video format", ext)
		}
		if f.SizeBytes > MaxVideoBytes {
			return apperr.Validationf(field, "video exceeds %d MB limit", MaxVideoBytes>>20)
		}
		if !strings.HasPrefix(mime, "video/") {
			return apperr.Validationf(field, "content type %q does not match a video upload", f.MimeType)
		}
	case UploadKindPDF:
		if ext != ".pdf" {
			return apperr.Validationf(field, "extension %q is not allowed, only .pdf", ext)
		}
		if f.SizeBytes > MaxDocumentBytes {
			return apperr.Validationf(field, "document exceeds %d MB limit", MaxDocumentBytes>>20)
		}
		if !strings.HasPrefix(mime, "application/pdf") {
			return apperr.Validationf(field, "content type %q does not match a pdf upload", f.MimeType)
		}
	case UploadKindCover:
		if f.SizeBytes > MaxImageBytes {
			return apperr.Validationf(field, "image exceeds %d MB limit", MaxImageBytes>>20)
		}
		if !strings.HasPrefix(mime, "image/") {
			return apperr.Validationf(field, "content type %q does not match an image upload", f.MimeType)
		}
	default:
		return apperr.Validationf(field, "unknown upload kind %q", kind)
	}
	return nil
}
