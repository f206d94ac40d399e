package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/setasidevault/internal/auth"
	"github.com/vbonduro/setasidevault/internal/config"
	"github.com/vbonduro/setasidevault/internal/db"
	"github.com/vbonduro/setasidevault/internal/logging"
	"github.com/vbonduro/setasidevault/internal/mediastore/local"
	"github.com/vbonduro/setasidevault/internal/service"
	"github.com/vbonduro/setasidevault/internal/store"
	"github.com/vbonduro/setasidevault/internal/vision"
	claudevision "github.com/vbonduro/setasidevault/internal/vision/claude"
	ollamavision "github.com/vbonduro/setasidevault/internal/vision/ollama"
	"github.com/vbonduro/setasidevault/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	collectionStore := store.NewCollectionStore(database)
	itemStore := store.NewItemStore(database)
	storyStore := store.NewStoryStore(database)

	mediaStg, err := local.NewLocalMediaStore(cfg.StoragePath)
	if err != nil {
		logger.Error("failed to initialize media store", "error", err)
		return
	}

	if cfg.AuthEnabled() && cfg.AdminTokenSecret == "" {
		logger.Error("ADMIN_TOKEN_SECRET is required when ADMIN_PASSWORD_HASH is set")
		return
	}
	if !cfg.AuthEnabled() {
		logger.Warn("admin authentication disabled; set ADMIN_PASSWORD_HASH to enable it")
	}
	authn := auth.NewAuthenticator(cfg.AdminPasswordHash, cfg.AdminTokenSecret, cfg.AdminTokenTTL)

	images := service.NewImages(mediaStg, cfg.MaxUploadBytes, logger, collectionStore, itemStore, storyStore)
	services := web.Services{
		Collections: service.NewCollectionService(collectionStore, itemStore, images, logger),
		Items:       service.NewItemService(itemStore, collectionStore, images, newDescriber(cfg, logger), logger),
		Stories:     service.NewStoryService(storyStore, itemStore, collectionStore, images, logger),
		Media:       service.NewMediaService(images, logger),
	}

	server := web.NewServer(services, mediaStg, authn, web.Options{
		StaticDir:      cfg.StaticDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSOrigins:    cfg.CORSOrigins,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newDescriber returns nil when no vision backend is configured, which turns
// the describe endpoint off.
func newDescriber(cfg *config.Config, logger *slog.Logger) vision.Describer {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeDescriber(cfg.ClaudeAPIKey, cfg.ClaudeModel, "")
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaDescriber(cfg.OllamaHost, cfg.OllamaModel)
	case "":
		logger.Info("no vision backend configured")
		return nil
	default:
		logger.Error("unknown VISION_BACKEND", "backend", cfg.VisionBackend)
		return nil
	}
}
