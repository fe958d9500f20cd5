package command

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("parsing log_level: %w", err)
	}
	return level, nil
}

// setupLogging installs the default logger at the configured level.
func (c *Config) setupLogging() {
	level := slog.LevelInfo
	if c.LogLevel != "" {
		if l, err := parseLogLevel(c.LogLevel); err == nil {
			level = l
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
