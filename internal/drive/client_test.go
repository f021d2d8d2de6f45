package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartellino/internal/domain"
)

func TestClient_ListChildren_FollowsPages(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		q := r.URL.Query()
		queries = append(queries, q.Get("q"))
		assert.Equal(t, "1000", q.Get("pageSize"))
		assert.Equal(t, "true", q.Get("supportsAllDrives"))
		assert.Equal(t, "true", q.Get("includeItemsFromAllDrives"))
		assert.Equal(t, listFields, q.Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "p2",
				"files": []map[string]string{
					{"id": "f1", "name": "Rossi Mario", "mimeType": FolderMimeType},
				},
			})
			return
		}
		assert.Equal(t, "p2", q.Get("pageToken"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"id": "f2", "name": "marzo.pdf", "mimeType": PDFMimeType},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/")
	files, err := c.ListChildren(context.Background(), "root'1")

	require.NoError(t, err)
	assert.Equal(t, []domain.SourceFile{
		{ID: "f1", Name: "Rossi Mario", MimeType: FolderMimeType},
		{ID: "f2", Name: "marzo.pdf", MimeType: PDFMimeType},
	}, files)
	require.Len(t, queries, 2)
	assert.Equal(t, `'root\'1' in parents and trashed=false`, queries[0])
	assert.True(t, IsFolder(files[0]))
	assert.False(t, IsFolder(files[1]))
}

func TestClient_GetFileAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/abc", r.URL.Path)
		if r.URL.Query().Get("alt") == "media" {
			_, _ = w.Write([]byte("%PDF-1.7"))
			return
		}
		assert.Equal(t, "id,name,mimeType", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"id":"abc","name":"aprile.pdf","mimeType":"application/pdf"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)

	f, err := c.GetFile(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "aprile.pdf", f.Name)

	data, err := c.Download(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"rate"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)

	_, err := c.GetFile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.ListChildren(context.Background(), "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drive API error 403")
}
