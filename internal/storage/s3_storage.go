package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/politologod/vibes-marketplace/internal/config"
)

// IS3Storage defines the interface for object storage operations.
type IS3Storage interface {
	// UploadProductImage stores the raw upload and returns the object key.
	UploadProductImage(ctx context.Context, productID, filename, contentType string, body io.Reader) (string, error)
	// Download fetches an object's bytes and content type.
	Download(ctx context.Context, key string) ([]byte, string, error)
	// Overwrite replaces an object in place.
	Overwrite(ctx context.Context, key, contentType string, data []byte) error
	// ObjectURL returns the public URL for a stored object.
	ObjectURL(key string) string
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{
		cfg:      cfg,
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

// sanitizeFilename keeps the base name and strips characters that have no
// business in an object key.
func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, base)
}

// UploadProductImage stores the upload under products/<productID>/<uuid>_<name>.
func (s *s3Storage) UploadProductImage(ctx context.Context, productID, filename, contentType string, body io.Reader) (string, error) {
	objectKey := fmt.Sprintf("products/%s/%s_%s", productID, uuid.NewString(), sanitizeFilename(filename))

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return objectKey, nil
}

// Download fetches an object's bytes and content type.
func (s *s3Storage) Download(ctx context.Context, key string) ([]byte, string, error) {
	output, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %s: %w", key, err)
	}

	contentType := ""
	if output.ContentType != nil {
		contentType = *output.ContentType
	}
	return data, contentType, nil
}

// Overwrite replaces an object in place.
func (s *s3Storage) Overwrite(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to overwrite object %s: %w", key, err)
	}
	return nil
}

// ObjectURL returns the public URL for a stored object. ImageBaseURL wins when
// configured (CDN or custom domain), otherwise the standard bucket URL.
func (s *s3Storage) ObjectURL(key string) string {
	if s.cfg.ImageBaseURL != "" {
		return strings.TrimSuffix(s.cfg.ImageBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.AwsS3Bucket, s.cfg.AwsRegion, key)
}
