// Copyright 2024-2026 Aiku AI

// Command yarrbot is a Matrix bot that relays Sonarr and Radarr webhook
// notifications into Matrix rooms. Administrators manage webhooks by
// chatting with the bot; each webhook gets a Basic-auth protected URL to
// configure in the media server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exzerolog"

	"github.com/aiku/yarrbot/pkg/bot"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// defaultConfigPath honors the YARRBOT_CONFIG environment variable when
// the flag is not given.
func defaultConfigPath() string {
	if path := os.Getenv("YARRBOT_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the config file")
	writeExample := flag.Bool("example-config", false, "print an example config file and exit")
	flag.Parse()

	if *writeExample {
		fmt.Print(bot.ExampleConfig)
		return
	}

	cfg, err := bot.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().
		Level(cfg.Level())
	exzerolog.SetupDefaults(&log)
	log.Info().Str("tag", Tag).Str("commit", Commit).Str("build_time", BuildTime).Msg("Starting yarrbot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Yarrbot exited with an error")
		os.Exit(1)
	}
	log.Info().Msg("Goodbye")
}
