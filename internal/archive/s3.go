// Package archive keeps raw provider payloads and listing pages in object
// storage before validation touches them, so a bad rule change can be
// replayed against the original data.
package archive

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bleubryce/AgentX-AI-sub001/internal/metrics"
	"github.com/bleubryce/AgentX-AI-sub001/internal/shared"
)

// Archiver stores raw payloads by key. Satisfied by S3Archiver; tests use
// small fakes.
type Archiver interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

type S3Archiver struct {
	client  *s3.Client
	bucket  string
	metrics *metrics.Service
}

// NewS3Archiver connects to S3 or a MinIO endpoint.
func NewS3Archiver(ctx context.Context, bucket, endpoint, region, user, password string, m *metrics.Service) (*S3Archiver, error) {
	creds := credentials.NewStaticCredentialsProvider(user, password, "")
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true, // required for MinIO
				}, nil
			},
		)),
	)
	if err != nil {
		return nil, err
	}

	return &S3Archiver{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		metrics: m,
	}, nil
}

func (a *S3Archiver) Save(ctx context.Context, key string, data []byte) error {
	key = shared.CleanKey(key)

	start := time.Now()
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})

	if a.metrics != nil {
		a.metrics.ArchiveDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
		if err != nil {
			a.metrics.ArchiveErrors.WithLabelValues("upload").Inc()
		}
	}
	return err
}

func (a *S3Archiver) Load(ctx context.Context, key string) ([]byte, error) {
	key = shared.CleanKey(key)

	start := time.Now()
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if a.metrics != nil {
		a.metrics.ArchiveDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
		if err != nil {
			a.metrics.ArchiveErrors.WithLabelValues("download").Inc()
		}
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
