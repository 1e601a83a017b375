// Package logging configures the daemon's structured logger. Every
// recoverable condition the router core encounters (malformed packet,
// unknown sender, send failure) and every route transition caused by a
// received advertisement goes through this logger rather than
// fmt.Print, so operators get one consistent, parseable event stream.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger. verbose lowers the level to
// Debug; otherwise Info and above are emitted.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
