package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"huddle/internal/constants"
	"huddle/internal/mediaurl"
	"huddle/internal/models"
)

type PhotosAPI interface {
	Upload(ctx context.Context, userID int64, fileName string, content io.Reader) (*models.Photo, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Photo, error)
	Delete(ctx context.Context, actorID, photoID int64) error
}

type PhotoService struct {
	client *Client
}

func NewPhotoService(client *Client) *PhotoService {
	return &PhotoService{client: client}
}

// Upload sends content as the multipart field "file". Returned photo URLs are
// made absolute against the client's base URL.
func (s *PhotoService) Upload(ctx context.Context, userID int64, fileName string, content io.Reader) (*models.Photo, error) {
	fileName = filepath.Base(fileName)
	if fileName == "." || fileName == string(filepath.Separator) {
		return nil, &ValidationError{Field: "file", Tag: "required", Message: "file name is required"}
	}

	data, err := io.ReadAll(io.LimitReader(content, constants.DefaultUploadMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, &ValidationError{Field: "file", Tag: "required", Message: "file is empty"}
	}
	if len(data) > constants.DefaultUploadMaxBytes {
		return nil, &ValidationError{Field: "file", Tag: "max", Message: "file is too large"}
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart form: %w", err)
	}

	var photo models.Photo
	err = s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/photos/user/" + pathID(userID),
		body:   rawBody{contentType: form.FormDataContentType(), data: buf.Bytes()},
	}, &photo)
	if err != nil {
		return nil, err
	}
	photo.URL = mediaurl.Resolve(s.client.BaseURL(), photo.URL)
	return &photo, nil
}

func (s *PhotoService) ListForUser(ctx context.Context, userID int64) ([]models.Photo, error) {
	var photos []models.Photo
	if err := s.client.do(ctx, request{method: http.MethodGet, path: "/api/photos/user/" + pathID(userID)}, &photos); err != nil {
		return nil, err
	}
	for i := range photos {
		photos[i].URL = mediaurl.Resolve(s.client.BaseURL(), photos[i].URL)
	}
	return photos, nil
}

func (s *PhotoService) Delete(ctx context.Context, actorID, photoID int64) error {
	return s.client.do(ctx, request{method: http.MethodDelete, path: "/api/photos/" + pathID(photoID), actor: actorID}, nil)
}
