package handler

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/usecase"
	"echosocial/pkg/errors"
	"echosocial/pkg/response"
)

type MediaHandler struct {
	mediaUseCase *usecase.MediaUseCase
}

func NewMediaHandler(mediaUseCase *usecase.MediaUseCase) *MediaHandler {
	return &MediaHandler{
		mediaUseCase: mediaUseCase,
	}
}

// Upload stores a multipart "file" and returns its URL and media kind.
func (h *MediaHandler) Upload(c echo.Context) error {
	uid := c.Get("uid").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read file", err))
	}
	defer file.Close()

	upload, err := h.mediaUseCase.Upload(c.Request().Context(), uid, file, fileHeader.Header.Get(echo.HeaderContentType))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, upload)
}
