package cloudinary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIgnoresUnsignedParams(t *testing.T) {
	c := New("demo", "key", "secret", "")
	a := c.sign(map[string]string{"timestamp": "1700000000", "api_key": "key"})
	b := c.sign(map[string]string{"timestamp": "1700000000", "api_key": "other", "resource_type": "video"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestUploadVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/video/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "campus", r.FormValue("folder"))
		assert.NotEmpty(t, r.FormValue("signature"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "clip.mp4", hdr.Filename)
		assert.Equal(t, "frames", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"public_id":"campus/clip","secure_url":"https://cdn.example/clip.mp4","resource_type":"video"}`)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "campus")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	res, err := c.UploadVideo(context.Background(), "clip.mp4", strings.NewReader("frames"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/clip.mp4", res.SecureURL)
}

func TestUploadVideoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, `{"error":{"message":"bad signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "")
	c.BaseURL = srv.URL
	_, err := c.UploadVideo(context.Background(), "clip.mp4", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
