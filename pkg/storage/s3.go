package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3Storage
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Config holds optional S3 client settings
type S3Config struct {
	Region string `yaml:"region"`
	// Endpoint overrides the service endpoint (MinIO, localstack)
	Endpoint string `yaml:"endpoint"`
	// PathStyle addresses buckets as endpoint/bucket/key
	PathStyle bool `yaml:"path_style"`
}

// S3Storage stores documents in Amazon S3
type S3Storage struct {
	client S3API
}

// NewS3Storage creates an S3 backend using the AWS default credentials
// chain (env vars, config files, IAM roles)
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewS3StorageWithClient(client), nil
}

// NewS3StorageWithClient creates an S3 backend around an existing client
func NewS3StorageWithClient(client S3API) *S3Storage {
	return &S3Storage{client: client}
}

// parseS3URI splits s3://bucket/key/path into bucket and key
func parseS3URI(uri string) (bucket, key string, err error) {
	scheme, path, err := ParseURI(uri)
	if err != nil {
		return "", "", err
	}
	if scheme != "s3" {
		return "", "", fmt.Errorf("S3 storage only supports s3:// URIs, got %s://", scheme)
	}

	bucket, key, _ = strings.Cut(path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid S3 URI: missing bucket name")
	}
	if key == "" {
		return "", "", fmt.Errorf("invalid S3 URI: missing object key")
	}
	return bucket, key, nil
}

// Get opens an object
func (s *S3Storage) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	return result.Body, nil
}

// Put uploads an object
func (s *S3Storage) Put(ctx context.Context, uri string, data io.Reader) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to put S3 object: %w", err)
	}
	return nil
}

// Delete removes an object
func (s *S3Storage) Delete(ctx context.Context, uri string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete S3 object: %w", err)
	}
	return nil
}

// Exists sends a HEAD request for the object
func (s *S3Storage) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check S3 object existence: %w", err)
}

// isNotFound recognises the ways S3 reports a missing object: typed
// NoSuchKey/NotFound errors, a NotFound code, or a bare 404
func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}

	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".yaml"), strings.HasSuffix(key, ".yml"):
		return "application/yaml"
	default:
		return "text/plain"
	}
}
