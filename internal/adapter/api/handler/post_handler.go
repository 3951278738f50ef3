package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"echosocial/internal/usecase"
	"echosocial/pkg/errors"
	"echosocial/pkg/response"
	"echosocial/pkg/utils"
)

const defaultPostPageSize = 20

type PostHandler struct {
	postUseCase *usecase.PostUseCase
}

func NewPostHandler(postUseCase *usecase.PostUseCase) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
	}
}

type createPostRequest struct {
	Content string `json:"content" validate:"max=2000"`
	Image   string `json:"image" validate:"omitempty,url"`
}

// Create accepts either a JSON body or a multipart form with an optional
// "image" file.
func (h *PostHandler) Create(c echo.Context) error {
	uid := c.Get("uid").(string)

	var input usecase.CreatePostInput
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		input.Content = c.FormValue("content")
		input.Image = c.FormValue("image")

		fileHeader, err := c.FormFile("image")
		if err != nil && err != http.ErrMissingFile {
			return response.Error(c, errors.BadRequest("Invalid image upload", err))
		}
		if fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				return response.Error(c, errors.BadRequest("Failed to read image", err))
			}
			defer file.Close()

			input.ImageFile = file
			input.ImageContentType = fileHeader.Header.Get(echo.HeaderContentType)
		}
	} else {
		var req createPostRequest
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
		if err := c.Validate(&req); err != nil {
			return response.Error(c, err)
		}
		input.Content = req.Content
		input.Image = req.Image
	}

	post, err := h.postUseCase.Create(c.Request().Context(), uid, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, post)
}

// List returns the whole feed unless page or limit is given.
func (h *PostHandler) List(c echo.Context) error {
	if c.QueryParam("page") == "" && c.QueryParam("limit") == "" {
		posts, _, err := h.postUseCase.List(c.Request().Context(), 0, 0)
		if err != nil {
			return response.Error(c, err)
		}
		return response.Success(c, posts)
	}

	params := utils.GetPaginationParams(c, defaultPostPageSize)
	posts, total, err := h.postUseCase.List(c.Request().Context(), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, posts, total, params.Page, params.PageSize)
}

func (h *PostHandler) GetByID(c echo.Context) error {
	post, err := h.postUseCase.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, post)
}

func (h *PostHandler) ListByUsername(c echo.Context) error {
	posts, err := h.postUseCase.ListByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, posts)
}

func (h *PostHandler) ToggleLike(c echo.Context) error {
	uid := c.Get("uid").(string)

	liked, err := h.postUseCase.ToggleLike(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{
		"liked": liked,
	})
}

func (h *PostHandler) Delete(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.postUseCase.Delete(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Post deleted successfully",
	})
}
