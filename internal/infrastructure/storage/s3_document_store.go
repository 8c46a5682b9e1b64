package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	leasingapp "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ leasingapp.DocumentStore = (*S3DocumentStore)(nil)

// S3DocumentStore implements DocumentStore on any S3-compatible endpoint
// (AWS S3, MinIO, RustFS).
type S3DocumentStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
}

// S3Option configures an S3DocumentStore
type S3Option func(*S3DocumentStore)

// WithLogger sets the logger for the store
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3DocumentStore) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for key partitioning
func WithClock(now func() time.Time) S3Option {
	return func(s *S3DocumentStore) {
		s.now = now
	}
}

// NewS3DocumentStore creates a document store from the storage configuration
func NewS3DocumentStore(cfg *config.StorageConfig, opts ...S3Option) (*S3DocumentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage access key and secret key are required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3DocumentStore{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		publicURL: publicBase(cfg, endpoint, region),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// publicBase picks the URL prefix documents are served from
func publicBase(cfg *config.StorageConfig, endpoint, region string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case endpoint != "" && cfg.UsePathStyle:
		return strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	case endpoint != "":
		u, _ := url.Parse(endpoint)
		return u.Scheme + "://" + cfg.Bucket + "." + u.Host
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

// EnsureBucket creates the bucket when it does not exist
func (s *S3DocumentStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating document bucket", zap.String("bucket", s.bucket))
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads the document under a fresh key and returns that key
func (s *S3DocumentStore) Put(ctx context.Context, data []byte, suggestedName string) (string, error) {
	key := documentKey(s.keyPrefix, suggestedName, s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	s.logger.Debug("Document stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

// Remove deletes the object at key. S3 treats a missing key as success.
func (s *S3DocumentStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// PublicURL returns the stable URL for key
func (s *S3DocumentStore) PublicURL(key string) string {
	return joinURL(s.publicURL, key)
}

// Bucket returns the configured bucket name
func (s *S3DocumentStore) Bucket() string {
	return s.bucket
}
