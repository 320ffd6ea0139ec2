package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/dog-face/snake-game/auth"
	"github.com/dog-face/snake-game/cache"
	"github.com/dog-face/snake-game/config"
	"github.com/dog-face/snake-game/domain"
	"github.com/dog-face/snake-game/hub"
	"github.com/dog-face/snake-game/leaderboard"
	"github.com/dog-face/snake-game/protocol"
	"github.com/dog-face/snake-game/storage"
	"github.com/dog-face/snake-game/storage/migrations"
	"github.com/dog-face/snake-game/watch"
	ws "github.com/dog-face/snake-game/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	if err := migrations.Run(cfg.DatabaseURL, slog.Default()); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var lbCache *cache.Cache
	if cfg.RedisAddr != "" {
		lbCache = cache.New(cfg.RedisAddr, cfg.CacheTTL)
		if err := lbCache.Ping(ctx); err != nil {
			slog.Warn("redis unreachable, leaderboard cache disabled", "error", err)
			lbCache = nil
		} else {
			defer lbCache.Close()
		}
	}

	broadcaster := hub.New()
	notifier := hub.NewNotifier(broadcaster)

	watchSocket := protocol.NewHandler(broadcaster, "Connected to Snake Game WebSocket")
	fpsSocket := protocol.NewHandler(broadcaster, "Connected to FPS Game WebSocket")

	authHandler := auth.NewHandler(store, cfg.SecretKey, cfg.TokenExpiry)
	snakeBoard := leaderboard.NewHandler(store, lbCache, domain.BoardSnake)
	fpsBoard := leaderboard.NewHandler(store, lbCache, domain.BoardFPS)
	watchHandler := watch.NewHandler(store, store, notifier, cfg.SessionTimeout)

	sweeper := watch.NewSweeper(store, notifier, cfg.SessionTimeout, time.Minute)
	go sweeper.Run(ctx)

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", wsHandler(broadcaster, watchSocket))
	mux.HandleFunc("/api/v1/games/fps/ws", wsHandler(broadcaster, fpsSocket))

	mux.HandleFunc("POST /api/v1/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/auth/me", authHandler.RequireUser(authHandler.Me))

	mux.HandleFunc("GET /api/v1/leaderboard", snakeBoard.List)
	mux.HandleFunc("POST /api/v1/leaderboard", authHandler.RequireUser(snakeBoard.Submit))
	mux.HandleFunc("GET /api/v1/games/fps/leaderboard", fpsBoard.List)
	mux.HandleFunc("POST /api/v1/games/fps/leaderboard", authHandler.RequireUser(fpsBoard.Submit))

	mux.HandleFunc("POST /api/v1/watch/start", authHandler.RequireUser(watchHandler.Start))
	mux.HandleFunc("PUT /api/v1/watch/update/{id}", authHandler.RequireUser(watchHandler.Update))
	mux.HandleFunc("POST /api/v1/watch/end/{id}", authHandler.RequireUser(watchHandler.End))
	mux.HandleFunc("GET /api/v1/watch/active", watchHandler.Active)
	mux.HandleFunc("GET /api/v1/watch/active/{id}", watchHandler.ActiveOne)

	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /stats", statsHandler(broadcaster))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsMiddleware.Handler(mux),
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func wsHandler(broadcaster *hub.Hub, handler domain.MessageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(uuid.New().String(), conn, broadcaster, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(broadcaster *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients, rooms, subscriptions := broadcaster.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"clients":       clients,
			"rooms":         rooms,
			"subscriptions": subscriptions,
		})
	}
}
