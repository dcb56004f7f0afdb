package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/turismap/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	url     string
	gotType string
}

func (f *fakeMedia) PresignPut(_ context.Context, contentType string) (string, string, error) {
	f.gotType = contentType
	return "media/abc", f.url + "/media/abc?sig=1", nil
}

func (f *fakeMedia) PresignGet(_ context.Context, key string) (string, error) {
	return f.url + "/" + key, nil
}

func TestMediaService_UploadFile(t *testing.T) {
	var body, ct string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body, ct = string(b), r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	fm := &fakeMedia{url: ts.URL}
	s := NewMediaService(fm, netx.NewUploader(ts.Client()))

	key, err := s.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "media/abc", key)
	assert.Equal(t, "png-bytes", body)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "image/png", fm.gotType)

	url, err := s.URL(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/media/abc"))
}

func TestMediaService_UploadFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	s := NewMediaService(&fakeMedia{url: ts.URL}, nil)
	_, err := s.Upload(context.Background(), "image/jpeg", strings.NewReader("x"), 1)
	require.Error(t, err)

	_, err = s.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
}
