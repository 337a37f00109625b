package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a slip object has not been uploaded yet
var ErrObjectNotFound = errors.New("object not found")

var allowedSlipTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// Config holds S3-compatible object storage settings
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
	PresignTTL      time.Duration
}

// SlipStorage stores bank payment slips in an S3-compatible bucket.
// Clients upload directly with a presigned PUT URL.
type SlipStorage struct {
	s3Client   *s3.Client
	presigner  *s3.PresignClient
	bucketName string
	presignTTL time.Duration
}

// NewSlipStorage creates the storage client
func NewSlipStorage(cfg Config) (*SlipStorage, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)

	logger.Info("Slip storage client initialized",
		zap.String("bucket", cfg.BucketName),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
	)

	return &SlipStorage{
		s3Client:   client,
		presigner:  s3.NewPresignClient(client),
		bucketName: cfg.BucketName,
		presignTTL: cfg.PresignTTL,
	}, nil
}

// SlipKey returns the object key for a booking's payment slip
func SlipKey(bookingID, contentType string) (string, error) {
	ext, ok := allowedSlipTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("invalid file type: %s. Allowed types: jpeg, png, webp, pdf", contentType)
	}
	return fmt.Sprintf("payment-slips/%s.%s", bookingID, ext), nil
}

// PresignUpload returns a URL the client can PUT the slip to
func (s *SlipStorage) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	start := time.Now()
	operation := "presignUpload"

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.presignTTL))

	duration := metrics.MeasureDuration(start)
	if err != nil {
		record(operation, "error", duration)
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration, zap.Error(err), zap.String("key", key))
		return "", time.Time{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	record(operation, "success", duration)
	logger.LogAPICall(ctx, "object_storage", operation, "success", duration, zap.String("key", key))
	return req.URL, start.Add(s.presignTTL), nil
}

// Exists reports whether the object has been uploaded
func (s *SlipStorage) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	operation := "headObject"

	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	duration := metrics.MeasureDuration(start)
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			record(operation, "success", duration)
			return false, nil
		}
		record(operation, "error", duration)
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration, zap.Error(err), zap.String("key", key))
		return false, fmt.Errorf("failed to check object: %w", err)
	}

	record(operation, "success", duration)
	return true, nil
}

func record(operation, status string, duration float64) {
	metrics.StorageRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, status).Inc()
}
