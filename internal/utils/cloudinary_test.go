package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func pngFileHeader(t *testing.T) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngMagic)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func TestUploadImage_RetryRereadsFromStart(t *testing.T) {
	svc := &CloudinaryService{
		config: DefaultCloudinaryConfig(),
		logger: zap.NewNop(),
	}

	var attempts int
	var lastRead []byte
	svc.uploadFn = func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
		attempts++
		data, err := io.ReadAll(file.(io.Reader))
		require.NoError(t, err)
		lastRead = data
		if attempts == 1 {
			return nil, fmt.Errorf("transient network error")
		}
		return &uploader.UploadResult{
			SecureURL: "https://res.example.com/photo.png",
			PublicID:  "waste-logs/photo",
			Format:    "png",
			Bytes:     len(data),
		}, nil
	}

	result, err := svc.UploadImage(context.Background(), pngFileHeader(t), "waste-logs")
	require.NoError(t, err)

	// The second attempt must see the whole file, not a drained reader.
	assert.Equal(t, 2, attempts)
	assert.Equal(t, pngMagic, lastRead)
	assert.Equal(t, "waste-logs/photo", result.PublicID)
	assert.Equal(t, len(pngMagic), result.Size)
}

func TestUploadImage_RejectsOversizedFile(t *testing.T) {
	svc := &CloudinaryService{
		config: CloudinaryConfig{MaxFileSize: 4, UploadTimeout: DefaultCloudinaryConfig().UploadTimeout},
		logger: zap.NewNop(),
	}

	_, err := svc.UploadImage(context.Background(), pngFileHeader(t), "waste-logs")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadImage_RejectsNonImageContent(t *testing.T) {
	svc := &CloudinaryService{
		config: DefaultCloudinaryConfig(),
		logger: zap.NewNop(),
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "notes.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text pretending to be a photo"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	_, err = svc.UploadImage(context.Background(), form.File["image"][0], "waste-logs")
	assert.ErrorIs(t, err, ErrInvalidContentType)
}
