// internal/pkg/logger/logger.go
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const StageProduction = "prod"

// New builds a JSON logger for production and a colourised console logger for
// every other stage.
func New(stage, level string) (*zap.Logger, error) {
	var cfg zap.Config

	if stage == StageProduction {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.MessageKey = "message"
		cfg.InitialFields = map[string]any{
			"service": "tiffin-promotions",
			"stage":   stage,
		}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	return cfg.Build()
}

// ParseLevel maps a LOG_LEVEL value to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
