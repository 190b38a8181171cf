package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/cleersplit-backend/internal/avatar"
	"github.com/AnshRaj112/cleersplit-backend/internal/config"
	"github.com/AnshRaj112/cleersplit-backend/internal/database"
	"github.com/AnshRaj112/cleersplit-backend/internal/events"
	"github.com/AnshRaj112/cleersplit-backend/internal/handlers"
	"github.com/AnshRaj112/cleersplit-backend/internal/logging"
	"github.com/AnshRaj112/cleersplit-backend/internal/middleware"
	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
	"github.com/AnshRaj112/cleersplit-backend/internal/routes"
	"github.com/AnshRaj112/cleersplit-backend/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	bus := events.NewBus(logger.Named("events"))
	defer bus.Close()

	store := profile.NewStore(bus, logger.Named("profile"))

	loaderOpts := []avatar.Option{
		avatar.WithLogger(logger.Named("avatar")),
		avatar.WithBus(bus),
		avatar.WithMaxBytes(cfg.AvatarMaxBytes),
	}
	if cfg.HasCloudinary() {
		uploader, err := avatar.NewCloudinaryUploader(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			logger.Warn("cloudinary unavailable, avatars will not be hosted", zap.Error(err))
		} else {
			loaderOpts = append(loaderOpts, avatar.WithUploader(uploader))
			logger.Info("cloudinary avatar hosting enabled", zap.String("folder", cfg.CloudinaryFolder))
		}
	} else {
		logger.Info("cloudinary credentials not found, avatars will not be hosted")
	}
	loader := avatar.NewLoader(func(img *avatar.Image) { store.SetAvatar(img) }, loaderOpts...)

	ctrl := session.NewController(store,
		session.WithBus(bus),
		session.WithLogger(logger.Named("session")),
		session.WithPolicy(cfg.SignOutPolicy),
		session.WithAvatarLoader(loader))

	g, gctx := errgroup.WithContext(ctx)

	var signInLimit func(http.Handler) http.Handler
	if cfg.RedisURI != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURI, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		relay := events.NewRedisRelay(client, bus, logger.Named("relay"))
		g.Go(func() error { return relay.Run(gctx) })

		signInLimit = middleware.NewRedisRateLimit(client, "sign-in", time.Minute, 10, logger).Middleware
	} else {
		limiter := middleware.SignIn()
		g.Go(func() error { return limiter.Run(gctx) })
		signInLimit = limiter.Limit("Too many sign-in attempts. Please try again later.")
	}

	global := middleware.Global()
	if cfg.IsProduction() {
		g.Go(func() error { return global.Run(gctx) })
	}

	h := handlers.New(handlers.Deps{
		Session:       ctrl,
		Store:         store,
		Loader:        loader,
		Bus:           bus,
		InviteBaseURL: cfg.InviteBaseURL,
		MaxUpload:     int64(cfg.AvatarMaxBytes),
		Logger:        logger.Named("http"),
	})
	router := routes.NewRouter(h, routes.Options{
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		AllowedHost:    cfg.AllowedHost,
		Global:         global,
		SignInLimit:    signInLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("CleerSplit backend running",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Environment),
			zap.String("sign_out_policy", string(cfg.SignOutPolicy)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// closing the bus ends open event streams so Shutdown is not held up by them
		bus.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
