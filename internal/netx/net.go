// Package netx uploads media through presigned object storage URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultContentType = "application/octet-stream"

// Uploader PUTs bodies to presigned URLs.
type Uploader struct {
	HTTP *http.Client
}

func NewUploader(c *http.Client) *Uploader {
	if c == nil {
		c = http.DefaultClient
	}
	return &Uploader{HTTP: c}
}

// Put sends body to a presigned PUT URL. The content type must match the
// one the URL was signed for.
func (u *Uploader) Put(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
	if contentType == "" {
		contentType = DefaultContentType
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

// Get downloads an object from a presigned GET URL.
func (u *Uploader) Get(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := u.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
