package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	TelegramAPIURL   string `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL    string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`

	// The single administrator allowed to run admin commands.
	AdminUserID int64 `envconfig:"ADMIN_USER_ID" required:"true" validate:"gt=0"`

	// Daily free-tier budget, in seconds of audio.
	DailyBudgetSeconds int `envconfig:"DAILY_BUDGET_SECONDS" default:"300" validate:"gt=0"`

	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	TempDir    string `envconfig:"TEMP_DIR" default:"/tmp"`
	FFmpegPath string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`

	// Pending-job cache settings
	JobTTLSec int `envconfig:"JOB_TTL_SEC" default:"900" validate:"gt=0"`

	// External call timeouts
	ConvertTimeoutSec  int `envconfig:"CONVERT_TIMEOUT_SEC" default:"60" validate:"gt=0"`
	ProviderTimeoutSec int `envconfig:"PROVIDER_TIMEOUT_SEC" default:"120" validate:"gt=0"`
	DownloadTimeoutSec int `envconfig:"DOWNLOAD_TIMEOUT_SEC" default:"60" validate:"gt=0"`

	// Telegram long-poll timeout
	PollTimeoutSec int `envconfig:"POLL_TIMEOUT_SEC" default:"30" validate:"gt=0"`

	// Ops HTTP server (health + reporting)
	OpsPort string `envconfig:"OPS_PORT" default:"8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
