// Package logger builds the structured loggers shared by every subsystem.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger tagged with the given service name and
// returns its sugared form, the interface every subsystem Config accepts.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// A logger that cannot be constructed is not worth failing startup
		// over; fall back to a minimal logger writing to stderr.
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			zapcore.InfoLevel,
		)
		log = zap.New(core)
	}

	return log.With(zap.String("service", service)).Sugar()
}

// NewNop returns a logger that discards everything, for tests that don't
// want log noise but still need to satisfy a *zap.SugaredLogger parameter.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
