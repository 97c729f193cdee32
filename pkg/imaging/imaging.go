// pkg/imaging/imaging.go
package imaging

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes is the upload size limit when none is configured.
const DefaultMaxBytes = 10 << 20

const octetStream = "application/octet-stream"

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var (
	ErrEmptyFile       = errors.New("no image file provided")
	ErrUnsupportedType = errors.New("invalid file type, only image files are allowed")
	ErrTooLarge        = errors.New("file size exceeds limit")
)

// MimeType derives the content type from the file extension.
// Unknown extensions map to application/octet-stream.
func MimeType(fileName string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return octetStream
}

// AllowedExtension reports whether the extension is on the upload allow-list.
func AllowedExtension(fileName string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// ValidateUpload enforces the upload contract: non-empty, allow-listed
// extension, at most maxBytes, and content that sniffs as an image.
func ValidateUpload(fileName string, data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if !AllowedExtension(fileName) {
		return ErrUnsupportedType
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(data)) > maxBytes {
		return fmt.Errorf("%w (%d MB)", ErrTooLarge, maxBytes>>20)
	}

	// Read first 512 bytes to detect file type
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: detected %s", ErrUnsupportedType, contentType)
	}

	return nil
}
