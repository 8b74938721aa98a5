package infra_s3_avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vibevortex/core/internal/model"
)

const presignTTL = 7 * 24 * time.Hour

type S3Storage struct {
	client *s3.Client

	prefix     string
	bucketName string
}

func New(bucketName string, client *s3.Client, prefix string) (*S3Storage, error) {
	storage := S3Storage{
		bucketName: bucketName,
		client:     client,
		prefix:     prefix,
	}

	_, err := storage.client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			switch apiError.(type) {
			case *types.NotFound:
				log.Printf("Bucket %v is available.\n", bucketName)
				err = nil
			default:
				log.Printf("Either you don't have access to bucket %v or another error occurred. "+
					"Here's what happened: %v\n", bucketName, err)
			}
		}
	} else {
		log.Printf("Bucket %v exists and you already own it.", bucketName)
	}

	return &storage, err
}

func (s *S3Storage) buildKey(paths ...string) string {
	var cleaned []string
	for _, p := range paths {
		clean := strings.ReplaceAll(p, "\\", "")
		clean = strings.ReplaceAll(clean, "/", "")
		cleaned = append(cleaned, clean)
	}
	return path.Join(cleaned...)
}

func (s *S3Storage) getFilename(path string) string {
	return filepath.Base(path)
}

// Save uploads the avatar and returns a presigned link the frontend can
// embed directly as profile_image.
func (s *S3Storage) Save(ctx context.Context, avatar *model.Avatar) (string, error) {
	key := s.buildKey(s.prefix, avatar.GetParent(), avatar.GetFilename())

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucketName,
		Key:    &key,
		Body:   bytes.NewReader(avatar.GetContent()),
		ACL:    types.ObjectCannedACLPrivate,
	}); err != nil {
		return "", fmt.Errorf("failed to save avatar to S3: %w", err)
	}

	return s.GeneratePresignedURL(ctx, key, presignTTL)
}

func (s *S3Storage) Load(ctx context.Context, readyKey string) (*model.Avatar, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucketName,
		Key:    &readyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load avatar from S3: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar content: %w", err)
	}

	obj := (&model.Avatar{}).NewFromData(data, s.getFilename(readyKey))
	return obj.(*model.Avatar), nil
}

func (s *S3Storage) Delete(ctx context.Context, readyKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucketName,
		Key:    &readyKey,
	})
	if err != nil {
		return err
	}
	return nil
}

func (s *S3Storage) GeneratePresignedURL(ctx context.Context, rawURL string, ttl time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(rawURL),
	}, s3.WithPresignExpires(ttl))

	if err != nil {
		return "", err
	}

	return req.URL, nil
}
