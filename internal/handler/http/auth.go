package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yogeshdgrg/BR-Dashboard/internal/service"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/httputil"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/validator"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
	// secureCookies controls the Secure flag on the token cookie; disabled
	// in local development over plain HTTP.
	secureCookies bool
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:       svc,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// LoginRequest is the JSON request body for admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the JSON request body for creating an admin account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	httputil.Response
	Token string `json:"token"`
}

// Login handles POST /api/v1/auth/login. On success it returns the token in
// the body and also sets it as an HTTP-only cookie for browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	token, _, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Response: httputil.Response{Success: true, Message: "login successful"},
		Token:    token,
	})
}

// Logout handles POST /api/v1/auth/logout by expiring the token cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Success: true,
		Message: "logout successful",
	})
}

// Register handles POST /api/v1/auth/register. The route is mounted behind
// the auth middleware, so only an existing admin can create another.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	admin, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "admin created successfully",
		"admin":   admin,
	})
}
