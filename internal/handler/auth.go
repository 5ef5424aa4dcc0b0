package handler

import (
	"errors"
	"net/http"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/accounts"
)

// AuthHandler handles sign up and login
type AuthHandler struct {
	accounts accounts.ServiceInterface
}

func NewAuthHandler(accountsService accounts.ServiceInterface) *AuthHandler {
	return &AuthHandler{accounts: accountsService}
}

// PostAuthSignup handles POST /auth/signup
func (h *AuthHandler) PostAuthSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.accounts.SignUp(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidSignUp):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, accounts.ErrEmailTaken):
			http.Error(w, "Email already registered", http.StatusConflict)
		default:
			internalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// PostAuthLogin handles POST /auth/login
func (h *AuthHandler) PostAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	resp, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
