package s3mock

import (
	"context"
	"time"

	"github.com/vibevortex/core/internal/model"
)

// S3Storage is a no-op avatar store for environments without object storage.
type S3Storage struct{}

func New() *S3Storage {
	return &S3Storage{}
}

func (s *S3Storage) Save(ctx context.Context, avatar *model.Avatar) (string, error) {
	return "", nil
}

func (s *S3Storage) Load(ctx context.Context, readyKey string) (*model.Avatar, error) {
	obj := (&model.Avatar{}).NewFromData([]byte{}, "")
	return obj.(*model.Avatar), nil
}

func (s *S3Storage) Delete(ctx context.Context, readyKey string) error {
	return nil
}

func (s *S3Storage) GeneratePresignedURL(ctx context.Context, rawURL string, ttl time.Duration) (string, error) {
	return "", nil
}
