package services

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
)

// StoredPhoto is the bucket location of an uploaded photo.
type StoredPhoto struct {
	Key string
	URL string
}

// FileService stores photos under category-prefixed keys. A nil bucket (no
// GCS configured) degrades to keyless records so local development does not
// require cloud credentials.
type FileService interface {
	SaveInspectionPhoto(ctx context.Context, userID uuid.UUID, day time.Time, mimeType string, data []byte) (*StoredPhoto, error)
	SaveTemplatePhoto(ctx context.Context, building string, mimeType string, data []byte) (*StoredPhoto, error)
	FetchPhoto(ctx context.Context, key string) ([]byte, error)
	DeletePhoto(ctx context.Context, key string) error
}

type fileService struct {
	log    *logger.Logger
	bucket BucketService
}

func NewFileService(log *logger.Logger, bucket BucketService) FileService {
	return &fileService{log: log.With("service", "FileService"), bucket: bucket}
}

func extFor(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}

func (fs *fileService) save(ctx context.Context, key string, data []byte) (*StoredPhoto, error) {
	if fs.bucket == nil {
		fs.log.Debug("No bucket configured, skipping photo upload", "key", key)
		return &StoredPhoto{}, nil
	}
	if err := fs.bucket.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &StoredPhoto{Key: key, URL: fs.bucket.GetPublicURL(key)}, nil
}

func (fs *fileService) SaveInspectionPhoto(ctx context.Context, userID uuid.UUID, day time.Time, mimeType string, data []byte) (*StoredPhoto, error) {
	key := path.Join("inspections", userID.String(), day.Format("2006-01-02"), uuid.New().String()+extFor(mimeType))
	return fs.save(ctx, key, data)
}

func (fs *fileService) SaveTemplatePhoto(ctx context.Context, building string, mimeType string, data []byte) (*StoredPhoto, error) {
	if building == "" {
		return nil, fmt.Errorf("building required for template photo")
	}
	key := path.Join("templates", building, uuid.New().String()+extFor(mimeType))
	return fs.save(ctx, key, data)
}

func (fs *fileService) FetchPhoto(ctx context.Context, key string) ([]byte, error) {
	if fs.bucket == nil || key == "" {
		return nil, nil
	}
	return fs.bucket.DownloadFile(ctx, key)
}

func (fs *fileService) DeletePhoto(ctx context.Context, key string) error {
	if fs.bucket == nil || key == "" {
		return nil
	}
	return fs.bucket.DeleteFile(ctx, key)
}
