package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nexafashions/ims-admin/internal/api"
	"github.com/nexafashions/ims-admin/internal/config"
	"github.com/nexafashions/ims-admin/internal/web"
)

// main wires dependencies and starts the admin HTTP server.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	client := api.New(cfg.APIBaseURL, cfg.APITimeout)
	srv := web.NewServer(cfg, client)
	app := srv.App()

	zap.S().Infof("admin listening on %s, inventory api at %s", cfg.Addr, cfg.APIBaseURL)
	if err := app.Listen(cfg.Addr); err != nil {
		zap.S().Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	logger, err := zc.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}
