package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	DiscordToken string   `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildIDs     []string `env:"EVERYBOT_GUILD_IDS" envSeparator:","`
	StoragePath  string   `env:"EVERYBOT_DB_PATH" envDefault:"everybot.json"`

	IdleTimeout time.Duration `env:"EVERYBOT_IDLE_TIMEOUT" envDefault:"30s"`

	YtDlpPath  string `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	// YouTubeProxy is an http, https, socks4 or socks5 URL.
	YouTubeProxy string `env:"YOUTUBE_PROXY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`
}

// Load reads dotenvPath (a missing file is fine; variables already set in
// the environment win) and parses the environment into a Config.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.IdleTimeout <= 0 {
		return nil, fmt.Errorf("EVERYBOT_IDLE_TIMEOUT must be positive, got %s", cfg.IdleTimeout)
	}
	return &cfg, nil
}
