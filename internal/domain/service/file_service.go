package service

import (
	"context"
	"io"
)

// ImageStore uploads product images to object storage and returns the
// public reference URL.
type ImageStore interface {
	UploadImage(ctx context.Context, image io.Reader, contentType, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}
