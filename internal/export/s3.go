package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/planfold/plotd/internal/model"
)

// S3Destination publishes export results to an S3-compatible bucket under
// a configurable key prefix.
type S3Destination struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Destination, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(cfg, s3opts...)
	return &S3Destination{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Upload writes a successful export result to the bucket, keyed by the
// export filename under the configured prefix.
func (d *S3Destination) Upload(ctx context.Context, r Result, format model.Format) error {
	if !r.Success {
		return fmt.Errorf("cannot upload failed export: %w", r.Err)
	}

	contentType := contentTypeFor(format)
	key := path.Join(d.prefix, r.Filename)
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(r.Data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func contentTypeFor(format model.Format) string {
	switch format {
	case model.FormatSVG:
		return "image/svg+xml"
	case model.FormatPNG:
		return "image/png"
	case model.FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}
