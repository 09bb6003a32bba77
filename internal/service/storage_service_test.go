package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"athena-be/internal/testutil"
	"athena-be/pkg/pinata"
	"athena-be/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageService() (*StorageService, *testutil.FakeStore) {
	store := newFakeStore()
	svc := NewStorageService(store, retry.LinearPolicy(3, time.Millisecond), nil)
	svc.now = clock
	return svc, store
}

func TestStorageService_Upload(t *testing.T) {
	svc, store := newStorageService()

	res, err := svc.Upload(context.Background(), "logo.png", "image/png", strings.NewReader("png"), map[string]string{"hackathonId": "h1"})
	require.NoError(t, err)

	info, ok := store.File(res.ID)
	require.True(t, ok)
	assert.Equal(t, "logo.png", info.Name)
	assert.Equal(t, "file", info.KeyValues["type"])
	assert.Equal(t, "h1", info.KeyValues["hackathonId"])

	res, err = svc.Upload(context.Background(), "a.txt", "text/plain", strings.NewReader("a"), map[string]string{"type": "avatar"})
	require.NoError(t, err)
	info, _ = store.File(res.ID)
	assert.Equal(t, "avatar", info.KeyValues["type"])

	store.PutErr = func(pinata.Metadata) error { return errors.New("pinata down") }
	_, err = svc.Upload(context.Background(), "b.txt", "text/plain", strings.NewReader("b"), nil)
	requireAppError(t, err, http.StatusInternalServerError, "Upload failed")
}

func TestStorageService_UploadJSON(t *testing.T) {
	svc, store := newStorageService()
	ctx := context.Background()

	res, err := svc.UploadJSON(ctx, json.RawMessage(`{"hello":"world"}`), pinata.Metadata{})
	require.NoError(t, err)
	info, _ := store.File(res.ID)
	assert.Equal(t, "data.json", info.Name)
	assert.Equal(t, "json", info.KeyValues["type"])
	assert.JSONEq(t, `{"hello":"world"}`, string(store.Body(res.ID)))

	for _, empty := range []string{"", "null", " ", `""`} {
		_, err = svc.UploadJSON(ctx, json.RawMessage(empty), pinata.Metadata{})
		requireAppError(t, err, http.StatusBadRequest, "No data provided")
	}

	store.PutErr = func(pinata.Metadata) error { return errors.New("pinata down") }
	_, err = svc.UploadJSON(ctx, json.RawMessage(`[1]`), pinata.Metadata{Name: "x.json"})
	requireAppError(t, err, http.StatusInternalServerError, "JSON upload failed")
}

func TestStorageService_SignedURL(t *testing.T) {
	svc, _ := newStorageService()
	ctx := context.Background()

	url, err := svc.SignedURL(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSignedURLExpiry, url.Expires)
	assert.Equal(t, fixedNow.Add(30*time.Second), url.ExpiresAt)
	assert.Contains(t, url.SignedURL, "expires=30")

	url, err = svc.SignedURL(ctx, MaxSignedURLExpiry)
	require.NoError(t, err)
	assert.Equal(t, 300, url.Expires)

	_, err = svc.SignedURL(ctx, 301)
	requireAppError(t, err, http.StatusBadRequest, "Expires time cannot exceed 300 seconds")
}

func TestStorageService_UpdateFile(t *testing.T) {
	svc, store := newStorageService()
	ctx := context.Background()
	res, err := svc.UploadJSON(ctx, json.RawMessage(`{"a":1}`), pinata.Metadata{KeyValues: map[string]string{"stage": "draft"}})
	require.NoError(t, err)

	t.Run("merges tags", func(t *testing.T) {
		_, err := svc.UpdateFile(ctx, res.ID, map[string]string{"stage": "final"})
		require.NoError(t, err)
		info, _ := store.File(res.ID)
		assert.Equal(t, "final", info.KeyValues["stage"])
		assert.Equal(t, "json", info.KeyValues["type"])
		assert.NotEmpty(t, info.KeyValues["updatedAt"])
	})

	t.Run("retries transient failures", func(t *testing.T) {
		start := store.Updates
		store.UpdateErr = func(_ string, call int) error {
			if call == start+1 {
				return &pinata.StatusError{Op: "update", StatusCode: http.StatusBadGateway}
			}
			return nil
		}
		t.Cleanup(func() { store.UpdateErr = nil })

		_, err := svc.UpdateFile(ctx, res.ID, map[string]string{"stage": "judged"})
		require.NoError(t, err)
		assert.Equal(t, start+2, store.Updates)
	})

	t.Run("gives up after the policy", func(t *testing.T) {
		start := store.Updates
		store.UpdateErr = func(string, int) error { return errors.New("connection reset") }
		t.Cleanup(func() { store.UpdateErr = nil })

		_, err := svc.UpdateFile(ctx, res.ID, map[string]string{"stage": "x"})
		requireAppError(t, err, http.StatusInternalServerError, "Failed to update file")
		assert.Equal(t, start+3, store.Updates)
	})

	t.Run("unknown file is not retried", func(t *testing.T) {
		start := store.Updates
		_, err := svc.UpdateFile(ctx, "file-9999", map[string]string{"stage": "x"})
		requireAppError(t, err, http.StatusNotFound, "File not found")
		assert.Equal(t, start+1, store.Updates)
	})

	t.Run("requires id", func(t *testing.T) {
		_, err := svc.UpdateFile(ctx, " ", nil)
		requireAppError(t, err, http.StatusBadRequest, "File ID is required")
	})
}

func TestStorageService_List(t *testing.T) {
	svc, store := newStorageService()
	ctx := context.Background()

	files, err := svc.List(ctx, "", 10, "desc")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	store.Seed(map[string]int{"a": 1}, pinata.Metadata{Name: "a", KeyValues: map[string]string{"type": "json"}})
	store.Seed(map[string]int{"b": 2}, pinata.Metadata{Name: "b", KeyValues: map[string]string{"type": "file"}})
	store.Seed(map[string]int{"c": 3}, pinata.Metadata{Name: "c", KeyValues: map[string]string{"type": "json"}})

	files, err = svc.List(ctx, "json", 0, "desc")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "c", files[0].Name)

	files, err = svc.List(ctx, "", 1, "asc")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a", files[0].Name)

	store.ListErr = func(pinata.ListFilter) error { return errors.New("pinata down") }
	_, err = svc.List(ctx, "", 0, "")
	requireAppError(t, err, http.StatusInternalServerError, "Failed to list files")
}
