package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/db"
)

// S3Storage presigns photo uploads and reads against an S3-compatible bucket.
type S3Storage struct {
	bucket    string
	ttl       time.Duration
	presigner *s3.PresignClient
}

// NewS3Storage builds the client from config.
//
// Behavior:
//   - Static credentials are used when both key id and secret are set,
//     otherwise the default AWS chain applies.
//   - A custom endpoint switches to path-style addressing (Yandex Object Storage, MinIO).
func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("STORAGE_BUCKET is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Storage.Region)}
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.Storage.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Storage{
		bucket:    cfg.Storage.Bucket,
		ttl:       ttl,
		presigner: s3.NewPresignClient(client),
	}, nil
}

// PresignUpload returns a URL the client can PUT the object to.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	params := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	req, err := s.presigner.PresignPutObject(ctx, params, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignGet returns a time-limited read URL for key.
func (s *S3Storage) PresignGet(ctx context.Context, key string) (string, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	req, err := s.presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PhotoKey builds the object key for a new photo of a player.
// Men and women photos live under separate prefixes.
func PhotoKey(g db.Gender, tgID int64, fileName string) string {
	prefix := "women_photos"
	if g == db.GenderMan {
		prefix = "men_photos"
	}
	ext := strings.ToLower(path.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".heic":
	default:
		ext = ".jpg"
	}
	return fmt.Sprintf("%s/%d/%s%s", prefix, tgID, uuid.NewString(), ext)
}

// OwnsKey reports whether key was issued for tgID by PhotoKey.
func OwnsKey(g db.Gender, tgID int64, key string) bool {
	probe := PhotoKey(g, tgID, "x.jpg")
	dir := probe[:strings.LastIndex(probe, "/")+1]
	return strings.HasPrefix(key, dir) && !strings.Contains(key[len(dir):], "/")
}
