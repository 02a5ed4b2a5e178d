package main

import (
	"log/slog"
	"os"

	"github.com/nimred/encounter/internal/config"
	"github.com/nimred/encounter/internal/logging"
	"github.com/nimred/encounter/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.New(cfg.LogFormat)

	s := server.New(cfg)
	s.RegisterRoutes()
	s.Start()
}
