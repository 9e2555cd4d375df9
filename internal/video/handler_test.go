package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clipstream/backend/internal/api"
	"github.com/clipstream/backend/internal/models"
)

type fakeVideos struct {
	inserted []*models.Video
	err      error
}

func (f *fakeVideos) Insert(_ context.Context, v *models.Video) (*models.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	v.ID = primitive.NewObjectID()
	f.inserted = append(f.inserted, v)
	return v, nil
}

func (f *fakeVideos) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range f.inserted {
		if v.Owner == ownerID {
			out = append(out, *v)
		}
	}
	return out, nil
}

type fakeMedia struct {
	failOn  string
	uploads []string
	removed []string
}

func (f *fakeMedia) Upload(_ context.Context, category, filename string, r io.Reader, _ int64, _ string) (string, error) {
	if category == f.failOn {
		return "", errors.New("media host down")
	}
	io.Copy(io.Discard, r)
	url := fmt.Sprintf("http://media.test/%s/%s", category, filename)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeMedia) Remove(_ context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

func publishRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("file-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	user := &models.PublicUser{ID: "owner-1", UserName: "ann"}
	return req.WithContext(api.WithUser(req.Context(), user))
}

func publishFields() map[string]string {
	return map[string]string{"title": "My clip", "description": "First upload"}
}

func publishFiles() map[string]string {
	return map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.png"}
}

func TestPublish_Success(t *testing.T) {
	videos := &fakeVideos{}
	media := &fakeMedia{}
	h := NewHandler(videos, media)

	rec := httptest.NewRecorder()
	h.Publish(rec, publishRequest(t, publishFields(), publishFiles()))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, videos.inserted, 1)

	v := videos.inserted[0]
	assert.Equal(t, "owner-1", v.Owner)
	assert.Equal(t, "My clip", v.Title)
	assert.Contains(t, v.VideoFile, "/videos/")
	assert.Contains(t, v.Thumbnail, "/thumbnails/")
}

func TestPublish_MissingInput(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
	}{
		{"no title", map[string]string{"description": "d"}, publishFiles()},
		{"no description", map[string]string{"title": "t"}, publishFiles()},
		{"no video file", publishFields(), map[string]string{"thumbnail": "thumb.png"}},
		{"no thumbnail", publishFields(), map[string]string{"videoFile": "clip.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos := &fakeVideos{}
			h := NewHandler(videos, &fakeMedia{})
			rec := httptest.NewRecorder()
			h.Publish(rec, publishRequest(t, tt.fields, tt.files))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, videos.inserted)
		})
	}
}

func TestPublish_ThumbnailUploadFailureCleansUp(t *testing.T) {
	videos := &fakeVideos{}
	media := &fakeMedia{failOn: "thumbnails"}
	h := NewHandler(videos, media)

	rec := httptest.NewRecorder()
	h.Publish(rec, publishRequest(t, publishFields(), publishFiles()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, videos.inserted)
	// the already-uploaded video object is removed
	require.Len(t, media.removed, 1)
	assert.Contains(t, media.removed[0], "/videos/")
}

func TestList(t *testing.T) {
	videos := &fakeVideos{}
	media := &fakeMedia{}
	h := NewHandler(videos, media)

	rec := httptest.NewRecorder()
	h.Publish(rec, publishRequest(t, publishFields(), publishFiles()))
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(api.WithUser(req.Context(), &models.PublicUser{ID: "owner-1"}))
	rec = httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []models.Video `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "My clip", env.Data[0].Title)
}

func TestList_EmptyIsArray(t *testing.T) {
	h := NewHandler(&fakeVideos{}, &fakeMedia{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(api.WithUser(req.Context(), &models.PublicUser{ID: "owner-1"}))
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}
