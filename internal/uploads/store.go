package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BlobStore persists an uploaded attachment and returns the URL clients use
// to fetch it back.
type BlobStore interface {
	Save(ctx context.Context, key, contentType string, data io.Reader) (string, error)
}

// DiskStore writes attachments to a local directory, served back under
// /uploads/. Suitable for development and single-node deployments.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) Save(_ context.Context, key, _ string, data io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("uploads: create dir: %w", err)
	}
	// Keys are server-generated, but never trust a key with path parts.
	name := filepath.Base(key)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("uploads: create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("uploads: write file: %w", err)
	}
	return "/uploads/" + name, nil
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes attachments to an S3 bucket under chat_attachments/.
type S3Store struct {
	bucket  string
	client  S3API
	baseURL string
}

// NewS3Store creates an S3-backed attachment store. baseURL is the public
// prefix attachments are served from (a CDN or the bucket website endpoint).
func NewS3Store(client S3API, bucket, baseURL string) *S3Store {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{bucket: bucket, client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *S3Store) Save(ctx context.Context, key, contentType string, data io.Reader) (string, error) {
	s3Key := "chat_attachments/" + filepath.Base(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploads: s3 put %s: %w", s3Key, err)
	}
	return s.baseURL + "/" + s3Key, nil
}
