// Package uploads keeps the images submitted for diagnosis. Images are
// stored under a random name and served back at /uploads/<name>.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
)

// URLPrefix is the public path stored images are served from
const URLPrefix = "/uploads/"

// ErrNotFound is returned by Open for unknown names
var ErrNotFound = errors.New("upload not found")

// ErrNotImage is returned by DetectImageType for non-image payloads
var ErrNotImage = errors.New("only image files are allowed")

// Store persists uploaded images
type Store interface {
	// Save writes data under name
	Save(ctx context.Context, name, contentType string, data []byte) error
	// Open returns the stored image and its content type
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	// Sweep deletes images last written before cutoff and returns how many
	// were removed
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	// Backend names the storage backend
	Backend() string
}

// New creates the store selected by cfg.Backend
func New(ctx context.Context, cfg config.UploadsConfig) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.Dir)
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported upload backend: %s", cfg.Backend)
	}
}

var (
	namePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,5})?$`)
	extPattern  = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
)

// ValidName reports whether name could have been produced by NewName. It
// keeps path separators and traversal out of storage keys.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// NewName returns a random storage name keeping the original extension
func NewName(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		ext = extByType[contentType]
	}
	return uuid.New().String() + ext
}

// URL returns the public path for a stored name
func URL(name string) string {
	return URLPrefix + name
}

// NameFromURL extracts the storage name from a public path
func NameFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, URLPrefix)
	return name, ValidName(name)
}

// DetectImageType accepts data when either the declared type or the sniffed
// type is an image, and returns the type to store.
func DetectImageType(declared string, data []byte) (string, error) {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	return "", ErrNotImage
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for t, e := range extByType {
		if e == ext {
			return t
		}
	}
	if ext == ".jpeg" {
		return "image/jpeg"
	}
	return "application/octet-stream"
}
