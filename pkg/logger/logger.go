// Package logger builds the structured, service-scoped loggers that the
// buffer pool and the tablespace manager take through their Config (the
// VFS takes no logger). It wraps
// go.uber.org/zap, the teacher repo's logging library of choice.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger tagged with service, writing JSON-encoded
// entries to stderr at info level and above. Construction failures (zap's
// own config validation) are treated as unrecoverable: a logger that
// cannot be built is a deployment error, not a reported one.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	base, err := cfg.Build(zap.AddCaller(), zap.Fields(zap.String("service", service)))
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a malformed
		// encoder/level configuration, which is fixed at compile time
		// above; treat it as a deployment-blocking panic rather than
		// threading an error return through every caller of New.
		panic(err)
	}
	return base.Sugar()
}

// NewNop returns a logger that discards everything, for tests and any
// caller that wants engine components to run without configuring logging.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// NewDevelopment builds a human-readable, colorized console logger. Used
// by cmd/aistore-fsck and local development, where JSON output only gets
// in the way.
func NewDevelopment(service string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.OutputPaths = []string{"stderr"}

	base, err := cfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		panic(err)
	}
	return base.Sugar()
}
