package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/letterloop-backend/internal/assign"
	"github.com/yungbote/letterloop-backend/internal/cache"
	"github.com/yungbote/letterloop-backend/internal/http/handlers"
	"github.com/yungbote/letterloop-backend/internal/http/middleware"
	"github.com/yungbote/letterloop-backend/internal/ideas"
	"github.com/yungbote/letterloop-backend/internal/lifecycle"
	"github.com/yungbote/letterloop-backend/internal/platform/envutil"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/remote"
	"github.com/yungbote/letterloop-backend/internal/server"
	"github.com/yungbote/letterloop-backend/internal/store"
	"github.com/yungbote/letterloop-backend/internal/suggest"
)

func main() {
	// Logger
	logMode := envutil.GetEnv("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	port := envutil.GetEnv("PORT", "8080")
	jwtSecret := envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret")
	cacheBackend := envutil.GetEnv("CACHE_BACKEND", "sqlite")

	// Cache tier
	var cacheAdapter cache.Adapter
	switch cacheBackend {
	case "redis":
		redisCache, err := cache.NewRedis(
			envutil.GetEnv("REDIS_ADDR", "localhost:6379"),
			envutil.GetEnv("REDIS_PREFIX", "letterloop"),
			log,
		)
		if err != nil {
			log.Fatal("Redis cache init failed", "error", err)
		}
		cacheAdapter = redisCache
	case "memory":
		cacheAdapter = cache.NewMemory()
	default:
		sqliteCache, err := cache.NewSqlite(envutil.GetEnv("CACHE_DB_PATH", "letterloop-cache.db"), log)
		if err != nil {
			log.Fatal("Sqlite cache init failed", "error", err)
		}
		cacheAdapter = sqliteCache
	}

	// Remote tier. Postgres failing to come up is not fatal: the store keeps
	// serving from the cache and logs the degradation.
	var remoteStore remote.Store
	pg, err := remote.NewPostgres(log)
	if err != nil {
		log.Warn("Postgres init failed, running cache-only with in-memory remote", "error", err)
		remoteStore = remote.NewMemory()
	} else {
		remoteStore = pg
	}

	// Store and services
	st := store.New(cacheAdapter, remoteStore, log)
	lc := lifecycle.NewService(st, log)
	drawer := assign.NewDrawer(st, log)
	rotation := assign.NewRotation(st, log)

	gen, err := suggest.NewOpenAI(log)
	if err != nil {
		log.Fatal("Suggestion generator init failed", "error", err)
	}
	coord := ideas.NewCoordinator(st, gen, log)

	// Handlers
	roundsHandler := handlers.NewRoundsHandler(log, st, lc)
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, jwtSecret),
		Health:         handlers.NewHealthHandler(),
		Rounds:         roundsHandler,
		Setup:          handlers.NewSetupHandler(log, st, rotation),
		Draw:           handlers.NewDrawHandler(log, st, drawer),
		Ideas:          handlers.NewIdeasHandler(log, st, coord),
		Preferences:    handlers.NewPreferencesHandler(log, st),
		Profile:        handlers.NewProfileHandler(log, st),
		SavedIdeas:     handlers.NewSavedIdeasHandler(log, st),
		Membership:     handlers.NewMembershipHandler(log, st),
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	// Pending debounced edits land before the process exits.
	roundsHandler.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
}
