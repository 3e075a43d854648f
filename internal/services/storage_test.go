package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseStorageUpload(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	storage := NewSupabaseStorage(server.URL, "service-key", "payment-proofs")

	url, err := storage.Upload(context.Background(), "captura.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/storage/v1/object/payment-proofs/"))
	assert.True(t, strings.HasSuffix(gotPath, "-captura.png"))
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("png-bytes"), gotBody)

	assert.Contains(t, url, server.URL+"/storage/v1/object/public/payment-proofs/")
	assert.True(t, strings.HasSuffix(url, "-captura.png"))
}

func TestSupabaseStorageUploadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bucket not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	storage := NewSupabaseStorage(server.URL, "service-key", "missing")

	_, err := storage.Upload(context.Background(), "captura.png", "image/png", []byte("png-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
