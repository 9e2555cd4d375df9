package video

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/api"
	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
)

const maxUploadMemory = 32 << 20

// VideoStore defines the interface for video persistence.
type VideoStore interface {
	Insert(ctx context.Context, v *models.Video) (*models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
}

// MediaStore defines the interface for the external media host.
type MediaStore interface {
	Upload(ctx context.Context, category, filename string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Handler holds video HTTP handlers.
type Handler struct {
	videos VideoStore
	media  MediaStore
}

func NewHandler(videos VideoStore, media MediaStore) *Handler {
	return &Handler{videos: videos, media: media}
}

// Publish uploads a video file plus thumbnail and creates the video
// document owned by the current user.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	user := api.UserFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.WriteErr(w, apperr.ErrValidation, "Invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		api.WriteErr(w, apperr.ErrValidation, "Title and description are required")
		return
	}

	videoFile := formFile(r, "videoFile")
	if videoFile == nil {
		api.WriteErr(w, apperr.ErrValidation, "Video file is required")
		return
	}
	thumbFile := formFile(r, "thumbnail")
	if thumbFile == nil {
		api.WriteErr(w, apperr.ErrValidation, "Thumbnail is required")
		return
	}

	videoURL, err := h.uploadFile(r.Context(), "videos", videoFile)
	if err != nil {
		log.Printf("publish: video upload: %v", err)
		api.WriteErr(w, apperr.ErrUpload, "Failed to upload video")
		return
	}

	thumbURL, err := h.uploadFile(r.Context(), "thumbnails", thumbFile)
	if err != nil {
		log.Printf("publish: thumbnail upload: %v", err)
		// Don't leave the video object orphaned.
		if rmErr := h.media.Remove(r.Context(), videoURL); rmErr != nil {
			log.Printf("publish: remove video object: %v", rmErr)
		}
		api.WriteErr(w, apperr.ErrUpload, "Failed to upload thumbnail")
		return
	}

	video, err := h.videos.Insert(r.Context(), &models.Video{
		Owner:       user.ID,
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
	})
	if err != nil {
		log.Printf("publish: %v", err)
		api.WriteErr(w, err, "Failed to publish video")
		return
	}

	api.WriteJSON(w, http.StatusCreated, "Video published successfully", video)
}

// List returns the current user's videos, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := api.UserFrom(r.Context())

	videos, err := h.videos.ListByOwner(r.Context(), user.ID)
	if err != nil {
		log.Printf("list videos: %v", err)
		api.WriteErr(w, err, "Failed to list videos")
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	api.WriteJSON(w, http.StatusOK, "Videos fetched successfully", videos)
}

func (h *Handler) uploadFile(ctx context.Context, category string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.media.Upload(ctx, category, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
}

// formFile returns the first uploaded file for the field, or nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
