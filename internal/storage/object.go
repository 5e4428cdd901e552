// internal/storage/object.go
//
// S3-compatible object store for uploaded documents.
//
// Context
// -------
// Schedules are uploaded by the admin as PDFs and served to the public page
// straight from the object store.  Any S3-compatible endpoint works (MinIO,
// Supabase Storage, AWS S3); the bucket must allow anonymous reads so the
// returned public URL opens in a phone browser.
//
// Notes
// -----
//   - Keys are deterministic (`<siteID>/schedule.pdf`), so a re-upload
//     overwrites the previous object.  History lives in the local Archive.
//   - Public URL = PublicBaseURL + "/" + bucket + "/" + key, path-escaped
//     per segment.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxUpload caps an uploaded document.
const MaxUpload = 20 << 20

// ScheduleBucket is the default bucket for schedule PDFs.
const ScheduleBucket = "schedule-pdfs"

var pdfMagic = []byte("%PDF-")

// ErrNotConfigured is returned when uploads are attempted without an
// object-store endpoint.
var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectConfig holds connection settings.
type ObjectConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// putter is the part of *minio.Client the store uses.
type putter interface {
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStore uploads documents and reports their public URL.
type ObjectStore struct {
	client putter
	bucket string
	public string
}

// NewObjectStore dials the endpoint.  An empty endpoint returns (nil, nil);
// callers treat a nil store as "uploads disabled".
func NewObjectStore(cfg ObjectConfig) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return newObjectStore(cli, cfg), nil
}

func newObjectStore(c putter, cfg ObjectConfig) *ObjectStore {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = ScheduleBucket
	}
	return &ObjectStore{
		client: c,
		bucket: bucket,
		public: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Put stores r under key and returns its public URL.
func (s *ObjectStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	if s == nil {
		return "", ErrNotConfigured
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", s.bucket, key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL builds the anonymous-read URL of key.
func (s *ObjectStore) PublicURL(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.public + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(segs, "/")
}

// ScheduleKey is the object key of a site's schedule PDF.
func ScheduleKey(siteID string) string { return siteID + "/schedule.pdf" }

// CheckPDF rejects anything that is not a PDF or exceeds MaxUpload.
func CheckPDF(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty file")
	}
	if len(data) > MaxUpload {
		return fmt.Errorf("file larger than %d MiB", MaxUpload>>20)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return errors.New("not a PDF")
	}
	return nil
}
