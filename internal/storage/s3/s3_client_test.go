package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartellino/internal/config"
	"cartellino/internal/domain"
	"cartellino/internal/port"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = string(body)
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = io.WriteString(w, body)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (port.ObjectStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Client(&config.S3Config{
		Region:    "eu-south-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return store, fake
}

func TestObjectStore_RoundTrip(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	out, err := store.Upload(ctx, port.UploadInput{
		Bucket:      "sheets",
		Key:         "timesheets/1/marzo.txt",
		Body:        strings.NewReader("01 LU 8.00 8.00 8.00"),
		ContentType: "text/plain",
		Size:        20,
	})
	require.NoError(t, err)
	assert.Equal(t, `"etag-1"`, out.ETag)
	assert.Contains(t, fake.objects, "/sheets/timesheets/1/marzo.txt")

	fake.objects["/sheets/timesheets/1/marzo.txt"] = "01 LU 8.00 8.00 8.00"
	data, err := store.Download(ctx, "sheets", "timesheets/1/marzo.txt")
	require.NoError(t, err)
	assert.Equal(t, "01 LU 8.00 8.00 8.00", string(data))

	require.NoError(t, store.Delete(ctx, "sheets", "timesheets/1/marzo.txt"))
	assert.Empty(t, fake.objects)
}

func TestObjectStore_DownloadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Download(context.Background(), "sheets", "missing.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestObjectStore_PresignedURL(t *testing.T) {
	store, _ := newTestStore(t)

	url, err := store.GetPresignedURL(context.Background(), "sheets", "timesheets/1/marzo.pdf", 900)
	require.NoError(t, err)
	assert.Contains(t, url, "/sheets/timesheets/1/marzo.pdf")
	assert.Contains(t, url, "X-Amz-Expires=900")
}
