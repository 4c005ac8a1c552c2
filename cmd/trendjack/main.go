package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/jdylanwp/trendjack/internal/app"
	"github.com/jdylanwp/trendjack/internal/platform/config"
)

const localEnv = "local"

func main() {
	mode := flag.String("mode", "serve", "run mode: leads, trends, entities, embed, serve")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine, err := app.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialize engine")
	}
	defer engine.Close()

	logger.Info().Str("mode", *mode).Str("env", cfg.AppEnv).Msg("starting")

	switch *mode {
	case "leads":
		err = engine.RunLeads(ctx)
	case "trends":
		err = engine.RunTrends(ctx)
	case "entities":
		err = engine.RunEntities(ctx)
	case "embed":
		err = engine.RunEmbed(ctx)
	case "serve":
		err = engine.RunServe(ctx)
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Str("mode", *mode).Msg("run failed")
	}

	logger.Info().Str("mode", *mode).Msg("done")
}

// newLogger builds the process logger: human-readable console output in
// local development, JSON everywhere else.
func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.AppEnv == localEnv {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
