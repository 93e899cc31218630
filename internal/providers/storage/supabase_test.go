package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseSignerBuildsAbsoluteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/sign/songs/albums/night%20drive.mp3", r.URL.EscapedPath())
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(60), body["expiresIn"])

		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/songs/albums/night%20drive.mp3?token=abc"}`))
	}))
	defer srv.Close()

	signer := NewSupabaseSigner(SupabaseConfig{URL: srv.URL + "/", ServiceRoleKey: "service-key", Bucket: "songs"})
	signed, err := signer.SignedURL(context.Background(), "albums/night drive.mp3", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/songs/albums/night%20drive.mp3?token=abc", signed)
}

func TestSupabaseSignerSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
	}))
	defer srv.Close()

	signer := NewSupabaseSigner(SupabaseConfig{URL: srv.URL, ServiceRoleKey: "k", Bucket: "songs"})
	_, err := signer.SignedURL(context.Background(), "missing.mp3", time.Minute)
	require.ErrorIs(t, err, ErrSignFailed)
	assert.Contains(t, err.Error(), "Object not found")
}

func TestSupabaseSignerRequiresConfig(t *testing.T) {
	signer := NewSupabaseSigner(SupabaseConfig{Bucket: "songs"})
	_, err := signer.SignedURL(context.Background(), "a.mp3", time.Minute)
	require.ErrorIs(t, err, ErrNotConfigured)
}
