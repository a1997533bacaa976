// Package main is the entry point for the flipit flashcard server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal: its job is to:
// 1. Read configuration (internal/config: defaults, CONFIG_FILE, .env, env vars)
// 2. Create dependencies (the logger)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/flipit/internal/config"
	"github.com/sakif/flipit/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// slog.NewTextHandler outputs human-readable key=value logs on stdout.
	// Log levels (from least to most severe): Debug → Info → Warn → Error
	level, _ := cfg.SlogLevel() // already checked by Validate
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if cfg.TokenScheme == config.SchemeUserID {
		logger.Warn("AUTH_TOKEN_SCHEME=userid: bearer tokens are raw user IDs and never expire")
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(*cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
