package audit

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver stores expiring audit entries somewhere durable before
// retention cleanup deletes them from the hot table.
type Archiver interface {
	Archive(ctx context.Context, prefix string, cutoff time.Time, entries []*Entry) error
}

// S3ArchiveConfig configures the object-storage archiver.
type S3ArchiveConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// S3Archiver writes archives as NDJSON objects to S3-compatible storage.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver creates an archiver against the configured bucket. With
// empty access keys the default AWS credential chain is used, which is how
// the production deployment runs under an instance role; explicit keys are
// for MinIO in development.
func NewS3Archiver(ctx context.Context, cfg S3ArchiveConfig) (*S3Archiver, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey, cfg.SecretKey, "",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: cfg.Bucket}, nil
}

// Archive uploads the entries as one NDJSON object keyed by the cutoff
// date and upload time.
func (a *S3Archiver) Archive(ctx context.Context, prefix string, cutoff time.Time, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	body, err := exportNDJSON(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize archive: %w", err)
	}

	if prefix == "" {
		prefix = "audit-archive"
	}
	// Nanosecond timestamps keep keys unique when cleanup uploads
	// several batches back to back.
	key := fmt.Sprintf("%s/%s/audit-%d.ndjson",
		prefix,
		cutoff.UTC().Format("2006-01-02"),
		time.Now().UTC().UnixNano(),
	)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit archive %s: %w", key, err)
	}
	return nil
}
