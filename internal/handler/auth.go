package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/shopcart/internal/domain/auth"
	"github.com/xenking/shopcart/internal/domain/user"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// Signup registers a new account and returns the registered email.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	if err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "email already registered")
			return
		}
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"email": req.Email})
}

// Login verifies credentials and returns a fresh token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// Refresh rotates a refresh token into a new pair. A structurally invalid
// or expired-by-signature token is 401; a verified token that does not
// match the stored one is 403.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenMalformed):
			respondError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrRefreshMismatch):
			respondError(w, http.StatusForbidden, "refresh token has expired or is invalid")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout clears the caller's stored refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	if err := h.auth.Logout(r.Context(), id.Email); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Me returns the resolved caller identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{
		"email": id.Email,
		"name":  id.Name,
	})
}
