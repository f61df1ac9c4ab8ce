package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config contains minimal configuration for creating an S3 client.
// Empty values fall back to the standard AWS config/credential chain.
type S3Config struct {
	Region       string
	Profile      string
	UsePathStyle bool
}

// S3 wraps the AWS SDK for Go v2 S3 client with the calls the mirror needs.
type S3 struct {
	client *s3.Client
}

// NewS3 creates a new S3 wrapper using the default AWS configuration chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{client: c}, nil
}

// Put uploads an object to bucket/key.
func (s *S3) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	_, err := s.client.PutObject(ctx, in)
	return err
}

// Exists returns true if the object exists; false on 404/NotFound.
func (s *S3) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *http.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}

	return false, err
}

// ObjectStore is the subset of S3 the mirror uses.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// ArtifactMirror copies Daily Output Set files to
// s3://bucket/<prefix>/<date>/<kind>/<file>. A nil mirror does nothing.
type ArtifactMirror struct {
	store  ObjectStore
	bucket string
	prefix string
}

// NewArtifactMirror returns nil when bucket is empty.
func NewArtifactMirror(store ObjectStore, bucket, prefix string) *ArtifactMirror {
	if store == nil || bucket == "" {
		return nil
	}
	return &ArtifactMirror{store: store, bucket: bucket, prefix: prefix}
}

// Key is the object key for a local artifact.
func (m *ArtifactMirror) Key(date, kind, localPath string) string {
	return path.Join(m.prefix, date, kind, filepath.Base(localPath))
}

// Mirror uploads localPath unless the object already exists. It returns the
// key, or "" when the mirror is disabled.
func (m *ArtifactMirror) Mirror(ctx context.Context, date, kind, localPath string) (string, error) {
	if m == nil || localPath == "" {
		return "", nil
	}
	key := m.Key(date, kind, localPath)

	exists, err := m.store.Exists(ctx, m.bucket, key)
	if err != nil {
		return "", fmt.Errorf("s3 head %s: %w", key, err)
	}
	if exists {
		return key, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if err := m.store.Put(ctx, m.bucket, key, f, contentType); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return key, nil
}
