package usecase

import (
	"context"
	"io"
	"strings"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/service"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

type MediaUseCase struct {
	fileService service.FileUploadService
}

func NewMediaUseCase(fileService service.FileUploadService) *MediaUseCase {
	return &MediaUseCase{fileService: fileService}
}

type MediaUpload struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// MediaKind maps a MIME type to image or video, or "" for anything else.
func MediaKind(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return entity.MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return entity.MediaVideo
	default:
		return ""
	}
}

// Upload stores a chat attachment and returns its public URL.
func (uc *MediaUseCase) Upload(ctx context.Context, uid string, file io.Reader, contentType string) (*MediaUpload, error) {
	kind := MediaKind(contentType)
	if kind == "" {
		return nil, errors.BadRequest("Only image and video files are supported", nil)
	}

	url, err := uc.fileService.UploadFile(ctx, file, contentType, "chat/"+uid)
	if err != nil {
		logger.Error("Media upload for %s failed: %v", uid, err)
		return nil, errors.Internal("Failed to upload media", err)
	}

	return &MediaUpload{URL: url, Kind: kind}, nil
}
