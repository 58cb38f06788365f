package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	FX       FXConfig       `mapstructure:"fx"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
}

type WeatherConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type FXConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Load reads an optional config file and lets environment variables
// override it; a missing file is fine, missing token is the caller's
// problem to report.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.path", "bot.db")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 220)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", 15*time.Second)
	v.SetDefault("openai.retries", 2)

	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if token := v.GetString("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if key := v.GetString("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if base := v.GetString("OPENAI_BASE_URL"); base != "" {
		cfg.OpenAI.BaseURL = base
	}
	if key := v.GetString("OWM_API_KEY"); key != "" {
		cfg.Weather.APIKey = key
	}
	if p := v.GetString("DATABASE_PATH"); p != "" {
		cfg.Database.Path = p
	}
	if base := v.GetString("FX_BASE_URL"); base != "" {
		cfg.FX.BaseURL = base
	}

	return &cfg, nil
}
