package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/omadchef/omadchef-v2/backend/config"
	"github.com/omadchef/omadchef-v2/backend/internal/model"
)

// ArchiveService writes accepted plans to S3 as JSON documents. The
// archive is write-once history; the database stays the source of truth
// for reads.
type ArchiveService struct {
	s3Config *config.S3Config
}

// NewArchiveService creates a new ArchiveService instance
func NewArchiveService(s3Config *config.S3Config) *ArchiveService {
	return &ArchiveService{s3Config: s3Config}
}

// ArchivePlan uploads the plan document and returns its object key.
func (s *ArchiveService) ArchivePlan(ctx context.Context, plan *model.MealPlan) (string, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	key := fmt.Sprintf("plans/%s.json", plan.ID.String())

	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Printf("[ArchiveService] Archived plan %s to %s", plan.ID, key)
	return key, nil
}

// PlanURL returns a presigned download URL for an archived plan.
func (s *ArchiveService) PlanURL(ctx context.Context, archiveKey string) (string, error) {
	return s.s3Config.GeneratePresignedURL(ctx, archiveKey, 15*time.Minute)
}
