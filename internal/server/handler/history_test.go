package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

type fixedBlobs struct {
	objects   map[string]string
	listErr   error
	gotPrefix string
}

func (b *fixedBlobs) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := b.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (b *fixedBlobs) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	b.gotPrefix = prefix
	if b.listErr != nil {
		return nil, b.listErr
	}
	var infos []domain.BlobInfo
	for path, data := range b.objects {
		infos = append(infos, domain.BlobInfo{
			Path:         path,
			Size:         int64(len(data)),
			LastModified: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return infos, nil
}

func TestListArchivesNotConfigured(t *testing.T) {
	h := NewHistoryHandler(nil, nil, noopLogger())

	rec := httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/history/archives", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestListArchives(t *testing.T) {
	blobs := &fixedBlobs{objects: map[string]string{
		"archive/cycle_history/2026-01.jsonl": `{"id":"a"}` + "\n",
	}}
	h := NewHistoryHandler(nil, blobs, noopLogger())

	rec := httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/history/archives", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "archive/cycle_history/", blobs.gotPrefix)

	var resp struct {
		Archives []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"archives"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Archives, 1)
	assert.Equal(t, "2026-01.jsonl", resp.Archives[0].Name)
	assert.Equal(t, int64(11), resp.Archives[0].Size)
}

func TestListArchivesEmptyRendersArray(t *testing.T) {
	h := NewHistoryHandler(nil, &fixedBlobs{}, noopLogger())

	rec := httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/history/archives", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"archives":[]`)
}

func TestListArchivesStorageError(t *testing.T) {
	h := NewHistoryHandler(nil, &fixedBlobs{listErr: errors.New("s3 down")}, noopLogger())

	rec := httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/history/archives", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetArchiveStreamsFile(t *testing.T) {
	content := `{"id":"a"}` + "\n" + `{"id":"b"}` + "\n"
	blobs := &fixedBlobs{objects: map[string]string{
		"archive/cycle_history/2026-01.jsonl": content,
	}}
	h := NewHistoryHandler(nil, blobs, noopLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/history/archives/2026-01.jsonl", nil)
	req.SetPathValue("name", "2026-01.jsonl")
	rec := httptest.NewRecorder()
	h.GetArchive(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Equal(t, content, rec.Body.String())
}

func TestGetArchiveNotFound(t *testing.T) {
	h := NewHistoryHandler(nil, &fixedBlobs{}, noopLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/history/archives/2020-01.jsonl", nil)
	req.SetPathValue("name", "2020-01.jsonl")
	rec := httptest.NewRecorder()
	h.GetArchive(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetArchiveRejectsTraversal(t *testing.T) {
	blobs := &fixedBlobs{objects: map[string]string{
		"archive/cycle_history/2026-01.jsonl": "{}\n",
	}}
	h := NewHistoryHandler(nil, blobs, noopLogger())

	for _, name := range []string{"", "../secrets", "a/b.jsonl", ".hidden"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history/archives/x", nil)
		req.SetPathValue("name", name)
		rec := httptest.NewRecorder()
		h.GetArchive(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "name %q", name)
	}
}
