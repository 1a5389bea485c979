// Package logging builds the service's zap logger.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a production JSON logger at the named level. Unknown levels
// mean info. A logger that cannot be built degrades to a no-op logger.
func New(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("service", "labhub"))
}
