package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dog-face/snake-game/auth"
	"github.com/dog-face/snake-game/domain"
)

type listCall struct {
	board    domain.Board
	gameMode string
	offset   int
	limit    int
}

type fakeScoreStore struct {
	entries  []domain.ScoreEntry
	total    int
	inserted []domain.ScoreEntry
	lastList listCall
}

func (f *fakeScoreStore) InsertScore(_ context.Context, board domain.Board, e *domain.ScoreEntry) error {
	f.inserted = append(f.inserted, *e)
	return nil
}

func (f *fakeScoreStore) ListScores(_ context.Context, board domain.Board, gameMode string, offset, limit int) ([]domain.ScoreEntry, int, error) {
	f.lastList = listCall{board: board, gameMode: gameMode, offset: offset, limit: limit}
	return f.entries, f.total, nil
}

func testUser() *domain.User {
	return &domain.User{ID: "u1", Username: "alice"}
}

func TestList_Defaults(t *testing.T) {
	store := &fakeScoreStore{
		entries: []domain.ScoreEntry{{ID: "e1", Username: "alice", Score: 100, GameMode: "walls"}},
		total:   1,
	}
	h := NewHandler(store, nil, domain.BoardSnake)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listCall{board: domain.BoardSnake, gameMode: "", offset: 0, limit: 20}, store.lastList)

	var resp struct {
		Entries []domain.ScoreEntry `json:"entries"`
		Total   int                 `json:"total"`
		Offset  int                 `json:"offset"`
		Limit   int                 `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 1)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 20, resp.Limit)
}

func TestList_QueryParams(t *testing.T) {
	store := &fakeScoreStore{}
	h := NewHandler(store, nil, domain.BoardFPS)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/games/fps/leaderboard?offset=40&limit=10&gameMode=deathmatch", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listCall{board: domain.BoardFPS, gameMode: "deathmatch", offset: 40, limit: 10}, store.lastList)
}

func TestList_InvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative offset", "?offset=-1"},
		{"zero limit", "?limit=0"},
		{"limit over max", "?limit=101"},
		{"non-numeric", "?limit=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeScoreStore{}, nil, domain.BoardSnake)
			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard"+tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func submitReq(body string, user *domain.User) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leaderboard", strings.NewReader(body))
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	return req
}

func TestSubmit(t *testing.T) {
	store := &fakeScoreStore{}
	h := NewHandler(store, nil, domain.BoardFPS)

	rec := httptest.NewRecorder()
	h.Submit(rec, submitReq(`{"score":250,"kills":10,"deaths":2,"gameMode":"deathmatch"}`, testUser()))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.inserted, 1)
	entry := store.inserted[0]
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, 250, entry.Score)
	assert.Equal(t, 10, entry.Kills)
	assert.NotEmpty(t, entry.ID)
}

func TestSubmit_Unauthenticated(t *testing.T) {
	h := NewHandler(&fakeScoreStore{}, nil, domain.BoardSnake)

	rec := httptest.NewRecorder()
	h.Submit(rec, submitReq(`{"score":10,"gameMode":"walls"}`, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative score", `{"score":-1,"gameMode":"walls"}`},
		{"negative kills", `{"score":1,"kills":-1,"gameMode":"walls"}`},
		{"missing game mode", `{"score":1}`},
		{"not json", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeScoreStore{}
			h := NewHandler(store, nil, domain.BoardSnake)
			rec := httptest.NewRecorder()
			h.Submit(rec, submitReq(tt.body, testUser()))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.inserted)
		})
	}
}
