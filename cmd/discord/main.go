// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"everybot/internal/config"
	"everybot/internal/discord"
	"everybot/internal/logging"
	"everybot/internal/music/source_resolver"
	"everybot/internal/storage"
	"everybot/pkg/jobmgr"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "everybot",
		Short:         "Discord music bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := run(ctx, envFile); err != nil {
				log.Error().Err(err).Msg("Bot exited with error")
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "path to a dotenv file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "everybot", Version)
		},
	})
	return root
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Pretty: cfg.LogPretty})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	log.Info().Str("version", Version).Msg("Starting everybot...")

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	resolver, err := source_resolver.New(source_resolver.Options{
		YtDlpPath:  cfg.YtDlpPath,
		FFmpegPath: cfg.FFmpegPath,
		Proxy:      cfg.YouTubeProxy,
	})
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	jobs := jobmgr.NewManager(jobReporter())

	bot, err := discord.NewBot(cfg, store, resolver, jobs)
	if err != nil {
		return err
	}
	runErr := bot.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := jobs.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Strs("jobs", jobs.List()).Msg("Background jobs did not finish in time")
	}

	log.Info().Msg("Discord bot exited cleanly")
	return runErr
}

// jobReporter logs job lifecycle messages ("running:name", "done:name",
// "error:name:msg"). Failures are warnings, the rest is debug noise.
func jobReporter() jobmgr.StatusReporter {
	logger := logging.For("jobs")
	return func(msg string) {
		state, rest, _ := strings.Cut(msg, ":")
		if state == "error" {
			logger.Warn().Str("job", rest).Msg("Job failed")
			return
		}
		logger.Debug().Str("state", state).Str("job", rest).Msg("Job")
	}
}
