// Package objects stores project photos in an S3-compatible bucket.
// Supabase Storage speaks the S3 protocol, so the same store works against
// AWS S3, MinIO, or a Supabase project.
package objects

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/stavlog/stavlog-backend/config"
)

// PhotoStore uploads photos under project-scoped keys and hands back the
// public URL that gets written onto the project row.
type PhotoStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewPhotoStore(ctx context.Context, cfg config.StorageConfig) (*PhotoStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load storage credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Supabase and MinIO endpoints route by path, not subdomain.
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" && cfg.Endpoint != "" {
		publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &PhotoStore{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// UploadPhoto stores the body under projects/{projectID}/{uuid}{ext} and
// returns the object's public URL.
func (ps *PhotoStore) UploadPhoto(ctx context.Context, projectID, filename, contentType string, body io.Reader) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("projects/%s/%s%s", projectID, uuid.New().String(), ext)

	input := &s3.PutObjectInput{
		Bucket: &ps.bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := ps.client.PutObject(uploadCtx, input); err != nil {
		return "", fmt.Errorf("upload photo %s: %w", key, err)
	}

	return ps.publicURL + "/" + key, nil
}

// DeletePhoto removes the object behind a previously returned URL. Unknown
// URLs are ignored so callers can pass through whatever the row holds.
func (ps *PhotoStore) DeletePhoto(ctx context.Context, photoURL string) error {
	if ps.publicURL == "" || !strings.HasPrefix(photoURL, ps.publicURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(photoURL, ps.publicURL+"/")

	_, err := ps.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &ps.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}
