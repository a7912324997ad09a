package binarycache

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/glorpus-work/portman/pkg/errors"
)

// S3Options configure the remote binary cache backend. Any S3-compatible
// endpoint works (AWS, Cloudflare R2, MinIO).
type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
}

// S3Cache stores package archives in an S3-compatible bucket.
type S3Cache struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Cache initializes the remote cache client from options.
func NewS3Cache(ctx context.Context, opts S3Options) (*S3Cache, error) {
	if opts.Bucket == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, fmt.Errorf("binary cache S3 settings incomplete (bucket, access_key and secret_key are required)")
	}

	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		awsconfig.WithRegion(region),
	}
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: endpoint}, nil
			})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 binary cache config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Cache{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (c *S3Cache) objectKey(key string) string {
	return path.Join(c.prefix, key+".tar.zst")
}

// Contains probes the bucket for an archive with this key.
func (c *S3Cache) Contains(ctx context.Context, key string) bool {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	return err == nil
}

// Fetch downloads the archive for key and extracts it into destDir.
func (c *S3Cache) Fetch(ctx context.Context, key, destDir string) error {
	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		return errMiss(key)
	}
	defer func() { _ = output.Body.Close() }()

	tmpFile, err := os.CreateTemp("", "portman-cache-*.tar.zst")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.ReadFrom(output.Body); err != nil {
		_ = tmpFile.Close()
		return errors.Wrapf(errors.ErrCacheRestore, "failed to download %s: %v", key, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary archive: %w", err)
	}

	if err := unpackTree(ctx, tmpPath, destDir); err != nil {
		return errors.Wrapf(errors.ErrCacheRestore, "%s: %v", key, err)
	}
	return nil
}

// Store packs srcDir and uploads the archive under key.
func (c *S3Cache) Store(ctx context.Context, key, srcDir string) error {
	tmpDir, err := os.MkdirTemp("", "portman-cache-")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	archivePath := filepath.Join(tmpDir, key+".tar.zst")
	if err := packTree(ctx, srcDir, archivePath); err != nil {
		return errors.Wrapf(errors.ErrCacheStore, "failed to pack %s: %v", key, err)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
		Body:   file,
	})
	if err != nil {
		return errors.Wrapf(errors.ErrCacheStore, "failed to upload %s: %v", key, err)
	}
	return nil
}
