// Package receipts releases stored receipt files when the expense that
// references them is edited or deleted. Only the reference string is ever
// held by the rest of the system.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Releaser deletes the stored file behind a receipt reference.
type Releaser interface {
	Release(ctx context.Context, ref string) error
}

// LocalStore keeps receipts under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Release removes the file. References escaping the root are rejected and a
// file that is already gone is not an error.
func (s *LocalStore) Release(_ context.Context, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return nil
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return fmt.Errorf("resolve receipt root: %w", err)
	}
	path := filepath.Join(root, filepath.Clean("/"+ref))
	if !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return fmt.Errorf("receipt reference %q escapes store root", ref)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove receipt: %w", err)
	}
	return nil
}

// S3Config describes an S3 or MinIO bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps receipts as objects keyed by their reference.
type S3Store struct {
	bucket string
	client objectDeleter
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{bucket: cfg.Bucket, client: client}, nil
}

func (s *S3Store) Release(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(strings.TrimSpace(ref), "/")
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete receipt object %s: %w", key, err)
	}
	return nil
}
