package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MicrophoneAllow  = "allow"
	MicrophoneDeny   = "deny"
	MicrophonePrompt = "prompt"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	RoomURL        string        `mapstructure:"room_url"`
	DataDir        string        `mapstructure:"data_dir"`
	LogLevel       string        `mapstructure:"log_level"`
	AgentTimeout   time.Duration `mapstructure:"agent_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Microphone     string        `mapstructure:"microphone"`
	PageSize       int           `mapstructure:"page_size"`

	DBPath string `mapstructure:"-"`
}

// New loads configuration from configFile, or from the default search path
// when empty. MISO_* environment variables override file values.
func New(configFile string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("miso")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	v.SetDefault("api_base_url", "http://localhost:8000")
	v.SetDefault("room_url", "")
	v.SetDefault("data_dir", filepath.Join(home, ".miso"))
	v.SetDefault("log_level", "info")
	v.SetDefault("agent_timeout", "20s")
	v.SetDefault("request_timeout", "0s")
	v.SetDefault("microphone", MicrophonePrompt)
	v.SetDefault("page_size", 10)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "miso"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.RoomURL = strings.TrimRight(strings.TrimSpace(c.RoomURL), "/")
	if c.APIBaseURL == "" {
		return Config{}, fmt.Errorf("api_base_url is required")
	}
	if c.DataDir == "" {
		return Config{}, fmt.Errorf("data_dir is required")
	}
	switch c.Microphone {
	case MicrophoneAllow, MicrophoneDeny, MicrophonePrompt:
	default:
		return Config{}, fmt.Errorf("microphone must be one of allow, deny, prompt: got %q", c.Microphone)
	}
	if c.AgentTimeout <= 0 {
		c.AgentTimeout = 20 * time.Second
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	c.DBPath = filepath.Join(c.DataDir, "miso.db")
	return c, nil
}
