package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
)

// GCSStore keeps images in a Google Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore uses the credentials file when set, otherwise application
// default credentials.
func NewGCSStore(ctx context.Context, cfg config.UploadsConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.GCSBucket, prefix: cfg.GCSPrefix}, nil
}

// Backend returns "gcs"
func (s *GCSStore) Backend() string { return "gcs" }

func (s *GCSStore) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + name)
}

// Save uploads the image
func (s *GCSStore) Save(ctx context.Context, name, contentType string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid upload name: %q", name)
	}
	w := s.object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload to gcs: %w", err)
	}
	return nil
}

// Open downloads the image
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !ValidName(name) {
		return nil, "", ErrNotFound
	}
	r, err := s.object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to fetch from gcs: %w", err)
	}
	contentType := r.Attrs.ContentType
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return r, contentType, nil
}

// Sweep deletes objects under the prefix last updated before cutoff
func (s *GCSStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})

	removed := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("failed to list gcs uploads: %w", err)
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if !ValidName(name) || !attrs.Updated.Before(cutoff) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return removed, fmt.Errorf("failed to delete gcs upload: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Close releases the storage client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
