// Package drive reads folder trees and files from Google Drive over the v3
// REST API.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cartellino/internal/domain"
)

// DefaultBaseURL is the Drive v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3"

// Mime types reported by Drive.
const (
	FolderMimeType = "application/vnd.google-apps.folder"
	PDFMimeType    = "application/pdf"
)

const listFields = "nextPageToken,files(id,name,mimeType)"

// Client is an authenticated Drive API client. It implements
// port.DocumentSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Drive client. An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// fileListResponse is one page of a files.list call.
type fileListResponse struct {
	Files         []domain.SourceFile `json:"files"`
	NextPageToken string              `json:"nextPageToken"`
}

// ListChildren returns every non-trashed item directly inside folderID,
// following page tokens until exhausted.
func (c *Client) ListChildren(ctx context.Context, folderID string) ([]domain.SourceFile, error) {
	params := url.Values{
		"q":                         {fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))},
		"fields":                    {listFields},
		"pageSize":                  {"1000"},
		"supportsAllDrives":         {"true"},
		"includeItemsFromAllDrives": {"true"},
	}

	var all []domain.SourceFile
	for {
		body, err := c.get(ctx, "/files", params)
		if err != nil {
			return nil, err
		}
		var page fileListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding drive file list: %w", err)
		}
		all = append(all, page.Files...)
		if page.NextPageToken == "" {
			return all, nil
		}
		params.Set("pageToken", page.NextPageToken)
	}
}

// GetFile returns the id, name and mime type of one file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*domain.SourceFile, error) {
	body, err := c.get(ctx, "/files/"+url.PathEscape(fileID), url.Values{
		"fields":            {"id,name,mimeType"},
		"supportsAllDrives": {"true"},
	})
	if err != nil {
		return nil, err
	}
	var f domain.SourceFile
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decoding drive file: %w", err)
	}
	return &f, nil
}

// Download returns the content of a binary file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	return c.get(ctx, "/files/"+url.PathEscape(fileID), url.Values{
		"alt":               {"media"},
		"supportsAllDrives": {"true"},
	})
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive API request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("drive API error %d: %w", resp.StatusCode, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("drive API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// IsFolder reports whether f is a Drive folder.
func IsFolder(f domain.SourceFile) bool {
	return f.MimeType == FolderMimeType
}
