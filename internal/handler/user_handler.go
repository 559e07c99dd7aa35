package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"moodtracker/internal/service"
)

// UserHandler serves the authenticated user's account.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// PasswordChangedResponse tells the client to sign in again.
type PasswordChangedResponse struct {
	Reauthenticate bool `json:"reauthenticate"`
}

// Profile godoc
// @Summary Get the current user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=service.UserSummary}
// @Failure 401 {object} errors.ErrorResponse
// @Router /user [get]
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	profile, err := h.svc.Profile(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, profile, nil, "")
}

// UpdateProfile godoc
// @Summary Update name, email or timezone
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Fields to change"
// @Success 200 {object} Envelope{data=service.UserSummary}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /user/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.UpdateProfileInput
	present, err := bindPatch(c, &req)
	if err != nil {
		return badRequest()
	}
	req.Present = present

	profile, err := h.svc.UpdateProfile(c.Request().Context(), id.UserID, req)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, profile, nil, "Profile updated successfully")
}

// ChangePassword godoc
// @Summary Change password and revoke every credential
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ChangePasswordInput true "Current and new password"
// @Success 200 {object} Envelope{data=PasswordChangedResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /user/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.ChangePasswordInput
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}

	if err := h.svc.ChangePassword(c.Request().Context(), id.UserID, req); err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, PasswordChangedResponse{Reauthenticate: true}, nil,
		"Password changed successfully. Please login again.")
}
