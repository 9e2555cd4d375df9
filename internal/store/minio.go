package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore wraps a MinIO client for avatar, cover-image and video storage.
// Uploaded objects are addressed by a public URL handed back to clients.
type MediaStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMediaStore(ctx context.Context, endpoint, accessKey, secretKey, bucket, baseURL string, useSSL bool) (*MediaStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	if baseURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &MediaStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload streams a file under a fresh object key in the given category
// folder (avatars, covers, videos, thumbnails) and returns its public URL.
func (s *MediaStore) Upload(ctx context.Context, category, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", category, uuid.NewString(), path.Ext(filename))
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio upload: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Remove deletes the object behind a URL previously returned by Upload.
// Unknown URLs are ignored.
func (s *MediaStore) Remove(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url || key == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
