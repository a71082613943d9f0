package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// StorageService defines the interface for hosting uploaded media
type StorageService interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (string, error)
}

// S3StorageService stores media objects in an S3 bucket
type S3StorageService struct {
	client *s3.Client
	bucket string
	region string
	logger *slog.Logger
}

// NewS3StorageService creates a new S3-backed storage service
func NewS3StorageService(region, bucket string, logger *slog.Logger) (*S3StorageService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3StorageService{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// Upload stores the object under a date-partitioned random key and returns
// the public URL.
func (s *S3StorageService) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("%s/%s/%s%s",
		folder,
		time.Now().UTC().Format("2006/01/02"),
		uuid.New().String(),
		path.Ext(filename),
	)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.logger.Error("failed to upload object to S3",
			slog.String("key", key),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)

	s.logger.Info("object uploaded",
		slog.String("key", key),
		slog.Int64("size", size))

	return url, nil
}
