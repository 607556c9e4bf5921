package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// ImageStorage uploads and removes waste log photos.
type ImageStorage interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (*UploadResult, error)
	DeleteImage(ctx context.Context, publicID string) error
}

// UploadResult contains the outcome of an image upload.
type UploadResult struct {
	URL      string
	PublicID string
	Format   string
	Size     int
}

// Errors for specific upload failure cases.
var (
	ErrFileTooLarge       = fmt.Errorf("file size exceeds limit")
	ErrInvalidContentType = fmt.Errorf("invalid content type")
	ErrInvalidExtension   = fmt.Errorf("invalid file extension")
	ErrMissingCredentials = fmt.Errorf("cloudinary credentials are missing")
	ErrUploadFailed       = fmt.Errorf("failed to upload file")
	ErrDeleteFailed       = fmt.Errorf("failed to delete file")
)

// CloudinaryConfig tunes the image storage service. Only image types are
// accepted; waste log photos never carry documents.
type CloudinaryConfig struct {
	MaxFileSize   int64
	UploadTimeout time.Duration
	DeleteTimeout time.Duration
	MaxRetries    int
}

// DefaultCloudinaryConfig provides sensible limits for log photos.
func DefaultCloudinaryConfig() CloudinaryConfig {
	return CloudinaryConfig{
		MaxFileSize:   5 * 1024 * 1024, // 5MB
		UploadTimeout: 30 * time.Second,
		DeleteTimeout: 10 * time.Second,
		MaxRetries:    3,
	}
}

// validImageExtensions maps accepted MIME types to their extensions.
var validImageExtensions = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// CloudinaryService implements ImageStorage on Cloudinary.
type CloudinaryService struct {
	client *cloudinary.Cloudinary
	config CloudinaryConfig
	logger *zap.Logger

	// uploadFn is the raw upload call; tests substitute it.
	uploadFn func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// NewCloudinaryService creates the image storage service from environment
// credentials (CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY,
// CLOUDINARY_API_SECRET).
func NewCloudinaryService(cfg CloudinaryConfig, logger *zap.Logger) (*CloudinaryService, error) {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}

	client, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryService{
		client:   client,
		config:   cfg,
		logger:   logger,
		uploadFn: client.Upload.Upload,
	}, nil
}

// UploadImage validates and uploads a log photo, retrying transient failures
// with exponential backoff.
func (c *CloudinaryService) UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (*UploadResult, error) {
	start := time.Now()

	if file.Size > c.config.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, file.Size, c.config.MaxFileSize)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.UploadTimeout)
	defer cancel()

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	defer src.Close()

	buffer := make([]byte, 512)
	if _, err := src.Read(buffer); err != nil && err != io.EOF {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("unable to reset file position: %w", err)
	}

	contentType := http.DetectContentType(buffer)
	extensions, ok := validImageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !slices.Contains(extensions, ext) {
		return nil, fmt.Errorf("%w: %s for %s", ErrInvalidExtension, ext, contentType)
	}

	params := uploader.UploadParams{
		Folder:         folder,
		UseFilename:    ptrBool(true),
		UniqueFilename: ptrBool(true),
		ResourceType:   "image",
	}

	var result *uploader.UploadResult
	operation := func() error {
		// A failed attempt leaves the cursor mid-file; rewind before retrying.
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(fmt.Errorf("unable to reset file position: %w", err))
		}
		var opErr error
		result, opErr = c.uploadFn(ctx, src, params)
		return opErr
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.config.UploadTimeout / 2
	err = backoff.RetryNotify(
		operation,
		backoff.WithMaxRetries(b, uint64(c.config.MaxRetries)),
		func(err error, d time.Duration) {
			c.logger.Warn("Upload attempt failed",
				zap.String("filename", file.Filename),
				zap.Error(err),
				zap.Duration("backoff", d),
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrUploadFailed, c.config.MaxRetries, err)
	}

	c.logger.Info("Image uploaded",
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
		zap.Duration("duration", time.Since(start)),
		zap.String("public_id", result.PublicID),
	)

	return &UploadResult{
		URL:      result.SecureURL,
		PublicID: result.PublicID,
		Format:   result.Format,
		Size:     result.Bytes,
	}, nil
}

// DeleteImage removes an uploaded photo by its public ID.
func (c *CloudinaryService) DeleteImage(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.DeleteTimeout)
	defer cancel()

	if _, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		c.logger.Error("Failed to delete image", zap.String("public_id", publicID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	c.logger.Info("Image deleted", zap.String("public_id", publicID))
	return nil
}

func ptrBool(b bool) *bool {
	return &b
}
