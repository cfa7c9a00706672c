package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study_dashboard/internal/config"
	"study_dashboard/internal/handler"
	"study_dashboard/internal/logger"
	"study_dashboard/internal/repository"
	"study_dashboard/internal/service"
	"study_dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := logger.New(os.Stderr, "info", "console")
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Debug().Msg("no .env file found, relying on environment variables")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore, err := openStore(ctx, &log, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open user store")
	}
	defer closeStore()

	jwtUtil := utils.NewJWTUtil(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)
	authService := service.NewAuthService(userRepo, jwtUtil, cfg.InitialAdminEmail, &log)
	router := handler.NewRouter(authService, jwtUtil, userRepo, &log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

// openStore connects the configured user store and returns a release func.
func openStore(ctx context.Context, log *zerolog.Logger, cfg *config.Config) (repository.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := config.ConnectDB(ctx, log, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := config.AutoMigrate(ctx, log, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewUserPostgresRepository(pool), pool.Close, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory user store, accounts are lost on restart")
		return repository.NewUserMemoryRepository(), func() {}, nil

	default:
		client, db, err := config.ConnectMongo(ctx, log, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		disconnect := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		}
		repo, err := repository.NewUserMongoRepository(ctx, log, db)
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		return repo, disconnect, nil
	}
}
