// Package s3service archives match request logs to S3.
package s3service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/utils"
)

const keyPrefix = "matchlogs"

// putObjectAPI is the part of the S3 client the archiver uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes one JSON object per match request.
type Archiver struct {
	client     putObjectAPI
	bucketName string
	logger     *zap.Logger
}

// NewArchiver creates an archiver using the default AWS credential chain.
func NewArchiver(ctx context.Context, region, bucket string) (*Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newArchiver(s3.NewFromConfig(cfg), bucket), nil
}

func newArchiver(client putObjectAPI, bucket string) *Archiver {
	return &Archiver{
		client:     client,
		bucketName: bucket,
		logger:     utils.GetLogger().Named("s3"),
	}
}

// ObjectKey returns the key under which a log entry is stored.
func ObjectKey(entry *models.MatchLog) string {
	ts := entry.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	id := entry.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	return fmt.Sprintf("%s/%s/%s.json", keyPrefix, ts.UTC().Format("2006/01/02"), id)
}

// RecordMatch uploads the entry as JSON.
func (a *Archiver) RecordMatch(ctx context.Context, entry *models.MatchLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal match log: %w", err)
	}

	key := ObjectKey(entry)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		a.logger.Error("Failed to upload match log to S3",
			zap.String("bucket", a.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload match log: %w", err)
	}

	a.logger.Debug("Archived match log",
		zap.String("bucket", a.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return nil
}
