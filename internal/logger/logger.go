package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger
func New(development bool) (*zap.Logger, error) {
	var cfg zap.Config

	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	return cfg.Build()
}

// Must creates a logger or panics
func Must(development bool) *zap.Logger {
	log, err := New(development)
	if err != nil {
		panic(err)
	}
	return log
}

// ForRun returns a child logger tagged with the backtest run ID, so log
// lines from parallel grid cells stay attributable.
func ForRun(log *zap.Logger, runID string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.With(zap.String("run_id", runID))
}
