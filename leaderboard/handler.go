// Package leaderboard serves the per-game score boards. One Handler
// instance per board; both share the same request surface.
package leaderboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dog-face/snake-game/api"
	"github.com/dog-face/snake-game/auth"
	"github.com/dog-face/snake-game/cache"
	"github.com/dog-face/snake-game/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Handler struct {
	scores domain.ScoreStore
	cache  *cache.Cache // nil disables caching
	board  domain.Board
}

func NewHandler(scores domain.ScoreStore, c *cache.Cache, board domain.Board) *Handler {
	return &Handler{scores: scores, cache: c, board: board}
}

type listResponse struct {
	Entries []domain.ScoreEntry `json:"entries"`
	Total   int                 `json:"total"`
	Offset  int                 `json:"offset"`
	Limit   int                 `json:"limit"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultLimit)
	if offset < 0 || limit < 1 || limit > maxLimit {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("offset must be >= 0 and limit between 1 and %d", maxLimit))
		return
	}
	gameMode := r.URL.Query().Get("gameMode")

	key := fmt.Sprintf("leaderboard:%s:%s:%d:%d", h.board, gameMode, offset, limit)
	if h.cache != nil {
		if cached, ok := h.cache.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	entries, total, err := h.scores.ListScores(r.Context(), h.board, gameMode, offset, limit)
	if err != nil {
		slog.Error("list scores failed", "board", h.board, "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not load leaderboard")
		return
	}
	if entries == nil {
		entries = []domain.ScoreEntry{}
	}

	resp := listResponse{Entries: entries, Total: total, Offset: offset, Limit: limit}
	if h.cache != nil {
		if body, err := json.Marshal(resp); err == nil {
			h.cache.Set(r.Context(), key, body)
		}
	}
	api.JSON(w, http.StatusOK, resp)
}

type submitRequest struct {
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	GameMode string `json:"gameMode"`
}

// Submit requires auth; wire it behind auth.Handler.RequireUser.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "not authenticated")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Score < 0 || req.Kills < 0 || req.Deaths < 0 {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "score, kills and deaths must be non-negative")
		return
	}
	if req.GameMode == "" {
		api.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "gameMode is required")
		return
	}

	entry := &domain.ScoreEntry{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Username:  user.Username,
		Score:     req.Score,
		Kills:     req.Kills,
		Deaths:    req.Deaths,
		GameMode:  req.GameMode,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.scores.InsertScore(r.Context(), h.board, entry); err != nil {
		slog.Error("insert score failed", "board", h.board, "error", err)
		api.Error(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "could not store score")
		return
	}

	if h.cache != nil {
		h.cache.InvalidatePrefix(r.Context(), fmt.Sprintf("leaderboard:%s:", h.board))
	}
	api.JSON(w, http.StatusCreated, entry)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
