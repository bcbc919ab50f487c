package logger

import "os"

// LoggerConfig controls level, format and output of the service logger. It
// is sourced from environment variables so the logger can come up before the
// main configuration is loaded.
type LoggerConfig struct {
	Level      string
	Format     string
	OutputFile string
}

func DefaultConfig() *LoggerConfig {
	cfg := &LoggerConfig{
		Level:      "info",
		Format:     "json",
		OutputFile: "stdout",
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.OutputFile = v
	}
	return cfg
}
