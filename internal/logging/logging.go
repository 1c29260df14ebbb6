// Package logging builds the zap logger of the wikiassets command and
// adapts it to the key/value Logger interface of the MediaWiki client.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	mediawiki "github.com/eznix86/mediawiki-assetsource"
)

// New builds a production logger writing to stderr. verbose forces debug
// level regardless of level.
func New(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stderr"}
	config.DisableStacktrace = !verbose

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a configured level name to a zap level. An empty name
// is info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

// Adapter forwards Logger calls to a sugared zap logger.
type Adapter struct {
	sugar *zap.SugaredLogger
}

// NewAdapter wraps logger. A nil logger discards everything.
func NewAdapter(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{sugar: logger.Sugar()}
}

func (a *Adapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a *Adapter) Info(msg string, args ...any) { a.sugar.Infow(msg, args...) }
func (a *Adapter) Warn(msg string, args ...any) { a.sugar.Warnw(msg, args...) }
func (a *Adapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

var _ mediawiki.Logger = (*Adapter)(nil)
