// Package auth implements signup, login, and bearer-token authentication
// for the REST surface. The real-time socket trusts the surrounding HTTP
// layer and never sees tokens itself.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dog-face/snake-game/api"
	"github.com/dog-face/snake-game/domain"
)

type ctxKey struct{}

// UserFromContext returns the authenticated user placed by RequireUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*domain.User)
	return u, ok
}

// ContextWithUser attaches an authenticated user; RequireUser does this for
// real requests, tests do it directly.
func ContextWithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

type Handler struct {
	users       domain.UserStore
	secret      string
	tokenExpiry time.Duration
}

func NewHandler(users domain.UserStore, secret string, tokenExpiry time.Duration) *Handler {
	return &Handler{users: users, secret: secret, tokenExpiry: tokenExpiry}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"username, email and a password of at least 8 characters are required")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		slog.Error("password hash failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not create user")
		return
	}

	user := &domain.User{
		ID:             uuid.New().String(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			api.Error(w, http.StatusConflict, "USER_EXISTS", "username or email already registered")
			return
		}
		slog.Error("create user failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not create user")
		return
	}

	api.JSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			api.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "incorrect username or password")
			return
		}
		slog.Error("lookup user failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "login failed")
		return
	}
	if !CheckPassword(user.HashedPassword, req.Password) {
		api.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "incorrect username or password")
		return
	}

	token, err := IssueToken(h.secret, user.ID, h.tokenExpiry)
	if err != nil {
		slog.Error("token issue failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "login failed")
		return
	}

	api.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "not authenticated")
		return
	}
	api.JSON(w, http.StatusOK, user)
}

// RequireUser wraps a handler with bearer-token authentication. The token
// subject must resolve to an existing user.
func (h *Handler) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			api.Error(w, http.StatusUnauthorized, "MISSING_TOKEN", "missing or malformed Authorization header")
			return
		}

		userID, err := ParseToken(h.secret, strings.TrimSpace(raw))
		if err != nil {
			api.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "token is invalid or expired")
			return
		}

		user, err := h.users.GetUserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				api.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "user no longer exists")
				return
			}
			slog.Error("lookup user failed", "error", err)
			api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "authentication failed")
			return
		}

		next(w, r.WithContext(ContextWithUser(r.Context(), user)))
	}
}
