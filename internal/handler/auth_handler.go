package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"moodtracker/internal/service"
)

// HeaderTimezone carries the client's zone as a registration hint.
const HeaderTimezone = "X-Timezone"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// CheckResponse reports the authenticated caller.
type CheckResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          CheckedUser `json:"user"`
}

// CheckedUser is the identity part of an auth check.
type CheckedUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param X-Timezone header string false "IANA zone used when the body has no timezone"
// @Param request body service.RegisterInput true "Registration data"
// @Success 201 {object} Envelope{data=service.AuthResult}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}
	req.TimezoneHint = c.Request().Header.Get(HeaderTimezone)

	result, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusCreated, result, nil, "User registered successfully")
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} Envelope{data=service.AuthResult}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}

	result, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, result, nil, "Login successful")
}

// Logout godoc
// @Summary Revoke the credential used for this request
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.authService.Logout(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, nil, nil, "Logged out successfully")
}

// Check godoc
// @Summary Report the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=CheckResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	profile, err := h.userService.Profile(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, CheckResponse{
		Authenticated: true,
		User:          CheckedUser{ID: profile.ID, Name: profile.Name, Email: profile.Email},
	}, nil, "")
}
