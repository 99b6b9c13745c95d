package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const publicURLPrefix = "https://storage.googleapis.com/"

// CloudStorageClient stores product images in a GCS bucket.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// ImageExtension maps an image content type to a file extension.
func ImageExtension(contentType string) (string, bool) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	}
	return "", false
}

// ObjectName builds a unique object path under folder.
func ObjectName(folder, contentType string, now time.Time) (string, error) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	folder = strings.Trim(folder, "/")
	return fmt.Sprintf("%s/%s-%s%s", folder, uuid.New().String(), now.Format("20060102150405"), ext), nil
}

func (c *CloudStorageClient) UploadImage(ctx context.Context, image io.Reader, contentType, folder string) (string, error) {
	filename, err := ObjectName(folder, contentType, time.Now())
	if err != nil {
		return "", err
	}

	obj := c.client.Bucket(c.bucketName).Object(filename)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, image); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy image to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %w", err)
	}

	return publicURLPrefix + c.bucketName + "/" + filename, nil
}

// ParseObjectURL extracts bucket and object name from a public GCS URL.
func ParseObjectURL(fileURL string) (bucket, object string, err error) {
	if !strings.HasPrefix(fileURL, publicURLPrefix) {
		return "", "", fmt.Errorf("invalid GCS URL format")
	}
	parts := strings.SplitN(fileURL[len(publicURLPrefix):], "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URL format")
	}
	return parts[0], parts[1], nil
}

func (c *CloudStorageClient) DeleteFile(ctx context.Context, fileURL string) error {
	bucket, object, err := ParseObjectURL(fileURL)
	if err != nil {
		return err
	}
	if bucket != c.bucketName {
		return fmt.Errorf("bucket mismatch: %s", bucket)
	}

	if err := c.client.Bucket(c.bucketName).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
