// Package storage issues presigned object-storage URLs for receipt images.
// It wraps an S3-compatible backend (MinIO in development) through the AWS
// SDK; clients upload directly with the presigned PUT so image bytes never
// travel through the API server.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/openfield/expensesync/internal/server/config"
)

// seams for tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

type Service struct {
	config *sc.Config
}

func NewService(config *sc.Config) *Service {
	return &Service{config: config}
}

// ReceiptKey builds a fresh storage key namespaced by identity and project.
// The trailing UUID guarantees a new upload can never overwrite an existing
// object.
func ReceiptKey(userID, projectID string) string {
	return fmt.Sprintf("receipts/%s/%s/%s", userID, projectID, uuid.New())
}

func (s *Service) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignReceiptPut returns a fresh storage key for {userID, projectID} and
// a presigned PUT URL for it, valid for 15 minutes.
func (s *Service) PresignReceiptPut(ctx context.Context, userID, projectID, contentType string) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := ReceiptKey(userID, projectID)

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PublicURL maps a storage key to the public read URL served by the bucket.
// The transparency view depends on receipts being world-readable.
func (s *Service) PublicURL(key string) string {
	return strings.TrimRight(s.config.S3PublicBaseURL, "/") + "/" + key
}
