// Package watch manages live watchable game sessions: the REST surface
// players drive, and the bridge into the presence broadcast core. The
// session id is the entity id spectators subscribe to.
package watch

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dog-face/snake-game/api"
	"github.com/dog-face/snake-game/auth"
	"github.com/dog-face/snake-game/domain"
)

type Handler struct {
	sessions domain.SessionStore
	scores   domain.ScoreStore
	notifier domain.PresenceNotifier
	timeout  time.Duration
}

func NewHandler(sessions domain.SessionStore, scores domain.ScoreStore, notifier domain.PresenceNotifier, timeout time.Duration) *Handler {
	return &Handler{sessions: sessions, scores: scores, notifier: notifier, timeout: timeout}
}

type startRequest struct {
	GameMode string `json:"gameMode"`
}

type startResponse struct {
	SessionID string          `json:"sessionId"`
	Player    *domain.Session `json:"player"`
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "not authenticated")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameMode == "" {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "gameMode is required")
		return
	}

	now := time.Now().UTC()
	sess := &domain.Session{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		Username:      user.Username,
		GameMode:      req.GameMode,
		StartedAt:     now,
		LastUpdatedAt: now,
	}
	if err := h.sessions.CreateSession(r.Context(), sess); err != nil {
		slog.Error("create session failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not start session")
		return
	}

	h.notifier.PlayerJoin(sess.ID, sess)
	api.JSON(w, http.StatusCreated, startResponse{SessionID: sess.ID, Player: sess})
}

type updateRequest struct {
	Score     int             `json:"score"`
	GameState json.RawMessage `json:"gameState"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if len(req.GameState) == 0 {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "gameState is required")
		return
	}
	if req.Score < 0 {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "score must be non-negative")
		return
	}

	updated, err := h.sessions.UpdateSession(r.Context(), sess.ID, req.Score, req.GameState)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			api.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
			return
		}
		slog.Error("update session failed", "sessionId", sess.ID, "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not update session")
		return
	}

	h.notifier.PlayerUpdate(updated.ID, updated)
	api.JSON(w, http.StatusOK, updated)
}

func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	// Best-effort persistence of the final score; a storage failure is
	// logged and never blocks teardown or the leave broadcast.
	if sess.Score > 0 {
		entry := &domain.ScoreEntry{
			ID:        uuid.New().String(),
			UserID:    sess.UserID,
			Username:  sess.Username,
			Score:     sess.Score,
			GameMode:  sess.GameMode,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.scores.InsertScore(r.Context(), domain.BoardSnake, entry); err != nil {
			slog.Error("persist final score failed", "sessionId", sess.ID, "error", err)
		}
	}

	if err := h.sessions.DeleteSession(r.Context(), sess.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.Error("delete session failed", "sessionId", sess.ID, "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not end session")
		return
	}

	h.notifier.PlayerLeave(sess.ID)
	api.JSON(w, http.StatusOK, map[string]string{"message": "session ended"})
}

type activeResponse struct {
	Players []domain.Session `json:"players"`
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListActiveSessions(r.Context(), time.Now().UTC().Add(-h.timeout))
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not load active players")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	api.JSON(w, http.StatusOK, activeResponse{Players: sessions})
}

func (h *Handler) ActiveOne(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			api.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
			return
		}
		slog.Error("get session failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not load session")
		return
	}
	if time.Since(sess.LastUpdatedAt) > h.timeout {
		api.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session has expired")
		return
	}
	api.JSON(w, http.StatusOK, sess)
}

// ownedSession loads the session in the path and enforces that the
// authenticated user owns it.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (*domain.Session, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "not authenticated")
		return nil, false
	}

	sess, err := h.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			api.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
			return nil, false
		}
		slog.Error("get session failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not load session")
		return nil, false
	}
	if sess.UserID != user.ID {
		api.Error(w, http.StatusForbidden, "NOT_SESSION_OWNER", "session belongs to another user")
		return nil, false
	}
	return sess, true
}
