package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var Client *minio.Client
var BucketName string

// ErrNoStorage is returned when the service runs without object storage.
var ErrNoStorage = errors.New("object storage not available")

func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("no object storage configuration")
	}

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "ocr-reports"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	var err error
	Client, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Verify bucket exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := Client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", BucketName)
	}

	return nil
}

// Available reports whether the archive is usable.
func Available() bool {
	return Client != nil
}

// UploadDocument archives a source document under
// {project}/YYYY/MM/{uuid}{ext} and returns the stored path.
func UploadDocument(ctx context.Context, project string, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", ErrNoStorage
	}
	if project == "" {
		project = "default"
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = extensionFor(contentType)
	}

	now := time.Now()
	objectName := fmt.Sprintf("%s/%d/%02d/%s%s",
		project,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		ext,
	)

	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	// Return the full path for storage in DB
	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a presigned URL for retrieving a document
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNoStorage
	}

	url, err := Client.PresignedGetObject(ctx, BucketName, trimBucket(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteDocument removes an archived document
func DeleteDocument(ctx context.Context, objectPath string) error {
	if Client == nil {
		return ErrNoStorage
	}

	return Client.RemoveObject(ctx, BucketName, trimBucket(objectPath), minio.RemoveObjectOptions{})
}

// trimBucket strips the bucket prefix stored alongside object paths.
func trimBucket(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}

// extensionFor maps a content type onto a file extension for uploads
// that arrive without one.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
