package util

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a logger writing to stdout at debug level.
func NewLogger(json bool) *zap.Logger {
	return NewLoggerWithLevel(json, zap.NewAtomicLevelAt(zap.DebugLevel))
}

// NewLoggerWithLevel returns a logger writing to stdout, in json or console
// format, filtered by the given level.
func NewLoggerWithLevel(json bool, level zap.AtomicLevel) *zap.Logger {
	econf := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "ts",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var core zapcore.Core

	if json {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(econf), os.Stdout, level)
	} else {
		econf.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(econf), os.Stdout, level)
	}
	return zap.New(core)
}

// ParseLevel maps a config log level to a zap level. Unknown values
// fall back to info.
func ParseLevel(lvl string) zap.AtomicLevel {
	switch lvl {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zap.NewAtomicLevelAt(zap.InfoLevel)
}
