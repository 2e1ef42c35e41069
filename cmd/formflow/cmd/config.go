package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// settings collects everything the subcommands read from configuration.
// Precedence is CLI flags > FORMFLOW_* environment > config file > defaults.
type settings struct {
	LogLevel string
	Renderer string
	Serve    serveSettings
	Submit   submitSettings
}

type serveSettings struct {
	Addr        string
	DBURL       string
	BasePath    string
	Definitions string
}

type submitSettings struct {
	Endpoint string
	Timeout  time.Duration
}

// levelRank orders the accepted --log-level values from most to least
// verbose.
var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

func loadSettings(configPath string) (*settings, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("renderer", "classic")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.db_url", "sqlite://formflow.db")
	v.SetDefault("serve.base_path", "")
	v.SetDefault("serve.definitions", "")
	v.SetDefault("submit.endpoint", "")
	v.SetDefault("submit.timeout", "15s")

	v.SetEnvPrefix("FORMFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &settings{
		LogLevel: v.GetString("log_level"),
		Renderer: v.GetString("renderer"),
		Serve: serveSettings{
			Addr:        v.GetString("serve.addr"),
			DBURL:       v.GetString("serve.db_url"),
			BasePath:    v.GetString("serve.base_path"),
			Definitions: v.GetString("serve.definitions"),
		},
		Submit: submitSettings{
			Endpoint: v.GetString("submit.endpoint"),
			Timeout:  v.GetDuration("submit.timeout"),
		},
	}

	// The persistent flag wins over environment and config file.
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if _, ok := levelRank[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", cfg.LogLevel)
	}

	return cfg, nil
}

// logsAt reports whether messages of the given level should be emitted under
// the configured one.
func (s *settings) logsAt(level string) bool {
	want, ok := levelRank[level]
	if !ok {
		return true
	}
	return levelRank[s.LogLevel] <= want
}
