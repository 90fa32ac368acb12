package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.MediaConfig{
		BaseURL:   baseURL,
		APIKey:    "key",
		APISecret: "secret",
	})
}

func TestUploadImage(t *testing.T) {
	var gotPath, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()

		require.NoError(t, r.ParseMultipartForm(MaxUploadBytes))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "covers/u1/photo.png", header.Filename)

		json.NewEncoder(w).Encode(UploadResult{
			URL:      "https://cdn.example.com/covers/u1/photo.png",
			PublicID: "covers/u1/photo",
			Width:    800,
			Height:   600,
			Format:   "png",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.UploadImage(context.Background(),
		"covers/u1/photo.png", "image/png", strings.NewReader("fake-png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/image/upload", gotPath)
	assert.Equal(t, "key", gotUser)
	assert.Equal(t, "https://cdn.example.com/covers/u1/photo.png", result.URL)
	assert.Equal(t, "covers/u1/photo", result.PublicID)
}

func TestUploadImageRejectsBadType(t *testing.T) {
	client := newTestClient("http://unused.example.com")

	_, err := client.UploadImage(context.Background(),
		"notes.txt", "text/plain", strings.NewReader("hello"))
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestUploadImageUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.UploadImage(context.Background(),
		"a.png", "image/png", strings.NewReader("bytes"))
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUpstream))
}

func TestUploadImageUnconfigured(t *testing.T) {
	client := NewClient(&config.MediaConfig{})
	_, err := client.UploadImage(context.Background(),
		"a.png", "image/png", strings.NewReader("bytes"))
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUpstream))
	assert.False(t, client.Configured())
}

func TestDeleteImage(t *testing.T) {
	var gotPath, gotPublicID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotPublicID = r.FormValue("public_id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	require.NoError(t, client.DeleteImage(context.Background(), "covers/u1/photo"))
	assert.Equal(t, "/image/destroy", gotPath)
	assert.Equal(t, "covers/u1/photo", gotPublicID)

	// An already-deleted image is not an error.
	server404 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server404.Close()
	assert.NoError(t, newTestClient(server404.URL).DeleteImage(context.Background(), "gone"))

	// Empty public IDs are rejected before any network call.
	err := client.DeleteImage(context.Background(), "")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestAllowedImageType(t *testing.T) {
	assert.True(t, AllowedImageType("image/png"))
	assert.True(t, AllowedImageType(" IMAGE/JPEG "))
	assert.False(t, AllowedImageType("application/pdf"))
	assert.False(t, AllowedImageType(""))
}
