package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kalambet/m5front/internal/config"
	"github.com/kalambet/m5front/internal/predictor"
)

// env is what every command works with: the loaded configuration and a
// client for the prediction service.
type env struct {
	cfg    config.Config
	client *predictor.Client
}

var loadEnv = func() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &env{
		cfg:    cfg,
		client: predictor.New(cfg.Predictor.BaseURL),
	}, nil
}

func logLevel(level string) slog.Level {
	if strings.EqualFold(level, "debug") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// setupLogging installs the default slog text handler writing to w.
func setupLogging(w io.Writer, level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel(level)})))
}
