package handler

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/usecase"
	"echosocial/pkg/logger"
	"echosocial/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	FirstName      string `json:"first_name" validate:"omitempty,max=50"`
	LastName       string `json:"last_name" validate:"omitempty,max=50"`
	Username       string `json:"username" validate:"omitempty,min=3,max=30"`
	Bio            string `json:"bio" validate:"omitempty,max=500"`
	Location       string `json:"location" validate:"omitempty,max=100"`
	ProfilePicture string `json:"profile_picture" validate:"omitempty,url"`
	BannerImage    string `json:"banner_image" validate:"omitempty,url"`
}

type deviceTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Sync creates the caller's user document on first sign-in.
func (h *UserHandler) Sync(c echo.Context) error {
	uid := c.Get("uid").(string)

	user, created, err := h.userUseCase.Sync(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		logger.Info("Created user %s (%s)", user.ID, user.Username)
		return response.Created(c, user)
	}
	return response.Success(c, user)
}

func (h *UserHandler) GetMe(c echo.Context) error {
	uid := c.Get("uid").(string)

	user, err := h.userUseCase.GetByID(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), uid, usecase.UpdateProfileInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Username:       req.Username,
		Bio:            req.Bio,
		Location:       req.Location,
		ProfilePicture: req.ProfilePicture,
		BannerImage:    req.BannerImage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) GetByUsername(c echo.Context) error {
	user, err := h.userUseCase.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) Search(c echo.Context) error {
	uid := c.Get("uid").(string)

	users, err := h.userUseCase.Search(c.Request().Context(), uid, c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, users)
}

func (h *UserHandler) GetByID(c echo.Context) error {
	user, err := h.userUseCase.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) ToggleFollow(c echo.Context) error {
	uid := c.Get("uid").(string)

	following, err := h.userUseCase.ToggleFollow(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{
		"following": following,
	})
}

func (h *UserHandler) RegisterDevice(c echo.Context) error {
	var req deviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	if err := h.userUseCase.RegisterDevice(c.Request().Context(), uid, req.Token); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Device registered",
	})
}
