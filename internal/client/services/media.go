package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/netx"
)

// MediaService uploads images for products and storefront logos and
// returns the object key to store as the image reference.
type MediaService struct {
	media client.Media
	up    *netx.Uploader
}

func NewMediaService(media client.Media, up *netx.Uploader) *MediaService {
	if up == nil {
		up = netx.NewUploader(nil)
	}
	return &MediaService{media: media, up: up}
}

func (s *MediaService) Upload(ctx context.Context, contentType string, r io.Reader, size int64) (string, error) {
	key, url, err := s.media.PresignPut(ctx, contentType)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	if err := s.up.Put(ctx, url, contentType, r, size); err != nil {
		return "", err
	}
	return key, nil
}

// UploadFile uploads a local file, guessing the content type from its
// extension.
func (s *MediaService) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = netx.DefaultContentType
	}
	return s.Upload(ctx, ct, f, info.Size())
}

// URL returns a short-lived download link for key.
func (s *MediaService) URL(ctx context.Context, key string) (string, error) {
	return s.media.PresignGet(ctx, key)
}
