package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	Secret         string        `mapstructure:"secret"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	GracePeriod    time.Duration `mapstructure:"grace_period"`
	MaxMembers     int           `mapstructure:"max_members"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	LogFile        string        `mapstructure:"log_file"`
}

var (
	ErrInvalidPort      = errors.New("port must be between 1 and 65535")
	ErrPongBeforePing   = errors.New("pong_wait must be greater than ping_period")
	ErrNonPositiveValue = errors.New("value must be greater than 0")
	ErrNoOrigins        = errors.New("allowed_origins is empty")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 4000)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("secret", "change-me")
	v.SetDefault("read_limit", 4096)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("grace_period", "30s")
	v.SetDefault("max_members", 5)
	v.SetDefault("rate_limit", 20.0)
	v.SetDefault("rate_burst", 40)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")
}

// Load reads config/config.<CONFIG_ENV>.yaml when present, then applies
// environment overrides. PORT and CORS_ORIGIN are the two the deployment sets.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	setDefaults(v)

	v.SetEnvPrefix("SHAREDALARM")
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PORT", "SHAREDALARM_PORT")
	_ = v.BindEnv("allowed_origins", "CORS_ORIGIN", "SHAREDALARM_ALLOWED_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Strs("origins", cfg.AllowedOrigins).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.PingPeriod <= 0 || c.WriteWait <= 0 || c.GracePeriod <= 0 {
		return fmt.Errorf("%w: ping_period, write_wait, grace_period", ErrNonPositiveValue)
	}
	if c.PongWait <= c.PingPeriod {
		return ErrPongBeforePing
	}
	if c.ReadLimit <= 0 || c.SendBuffer <= 0 || c.MaxMembers <= 0 || c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("%w: read_limit, send_buffer, max_members, rate_limit, rate_burst", ErrNonPositiveValue)
	}
	if len(c.AllowedOrigins) == 0 {
		return ErrNoOrigins
	}
	return nil
}

// AllowAllOrigins reports whether the origin list is the "*" wildcard.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
