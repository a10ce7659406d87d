package storage

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klimadata/euets/pkg/errors"
)

// S3Options configures the s3:// backend.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// S3Backend writes objects through the multipart uploader, whose commit is
// atomic: an aborted upload never becomes a visible object.
type S3Backend struct {
	uploader *manager.Uploader
}

// NewS3Backend builds the backend from the ambient AWS credential chain.
// Failures here are configuration errors raised at resolver construction,
// before any transfer starts.
func NewS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Backend{uploader: manager.NewUploader(client)}, nil
}

// Write streams r to s3://bucket/key, where location is "bucket/key".
func (b *S3Backend) Write(ctx context.Context, location string, r io.Reader) (string, error) {
	bucket, key, err := splitBucketKey(location)
	if err != nil {
		return "", err
	}

	_, err = b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", errors.Wrapf(errors.ErrDestination, "upload to s3://%s: %v", location, err)
	}
	return "s3://" + bucket + "/" + key, nil
}

// Join joins key segments with forward slashes.
func (b *S3Backend) Join(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}

// IsDir treats a trailing slash or a bare bucket as a key prefix.
func (b *S3Backend) IsDir(location string) bool {
	if strings.HasSuffix(location, "/") {
		return true
	}
	// A bucket with no key is a prefix too.
	return !strings.Contains(location, "/")
}

func splitBucketKey(location string) (string, string, error) {
	bucket, key, found := strings.Cut(location, "/")
	if !found || bucket == "" || key == "" {
		return "", "", errors.Wrapf(errors.ErrDestination, "s3 destination %q must be bucket/key", location)
	}
	return bucket, key, nil
}
