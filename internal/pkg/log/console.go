package log

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsoleLogger creates a production logger writing to the given writers.
// Warnings and errors go to stderr, everything else to stdout,
// debug messages only when verbose is enabled.
func NewConsoleLogger(stdout io.Writer, stderr io.Writer, verbose bool) Logger {
	cores := zapcore.NewTee(stdoutCore(stdout, verbose), stderrCore(stderr))
	return loggerFromZap(zap.New(cores))
}

// NewNopLogger drops all messages.
func NewNopLogger() Logger {
	return loggerFromZap(zap.NewNop())
}

func stdoutCore(stdout io.Writer, verbose bool) zapcore.Core {
	minLevel := InfoLevel
	if verbose {
		minLevel = DebugLevel
	}
	return zapcore.NewCore(
		consoleEncoder(),
		zapcore.AddSync(stdout),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= minLevel && l < WarnLevel
		}),
	)
}

func stderrCore(stderr io.Writer) zapcore.Core {
	return zapcore.NewCore(
		consoleEncoder(),
		zapcore.AddSync(stderr),
		zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= WarnLevel
		}),
	)
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		NameKey:        "component",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}
