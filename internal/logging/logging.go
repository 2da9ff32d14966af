// Package logging builds the console logger shared by the CLI and the
// database packages.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w at the named level.
// An unknown level falls back to info and is reported on the new logger.
// A nil w writes to stderr.
func New(level string, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := zapcore.InfoLevel
	bad := false
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = zapcore.InfoLevel
			bad = true
		}
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		lvl,
	)
	log := zap.New(core)

	if bad {
		log.Error("illegal log level, using info", zap.String("level", level))
	}
	return log
}
