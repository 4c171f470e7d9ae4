// Package logging holds the process-wide structured logger.
//
// Call Init once at startup; GetLogger falls back to an INFO text logger on
// stderr when Init was never called, so packages may log during tests.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	logger      *slog.Logger
	loggerMu    sync.RWMutex
	logFile     *os.File
	initialized bool
)

type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config selects level, destination and handler format.
type Config struct {
	Level      LogLevel
	OutputPath string // empty for stderr
	Format     string // "json" or "text"
}

var AlreadyInitializedErr = errors.New("logger already initialized")

func (level LogLevel) slogLevel() slog.Level {
	switch LogLevel(strings.ToUpper(string(level))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the global logger and replaces the fallback one. A second
// Init without Close fails.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if initialized {
		return AlreadyInitializedErr
	}

	var writer io.Writer = os.Stderr
	if config.OutputPath != "" {
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrapf(err, "opening log file %s", config.OutputPath)
		}
		writer = file
		logFile = file
	}

	logger = slog.New(newHandler(writer, config))
	initialized = true
	return nil
}

func newHandler(writer io.Writer, config Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}
	if config.Format == "json" {
		return slog.NewJSONHandler(writer, opts)
	}
	return slog.NewTextHandler(writer, opts)
}

// Close releases the log file, if any. Init may be called again afterwards.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	initialized = false
	return err
}

func GetLogger() *slog.Logger {
	loggerMu.RLock()
	current := logger
	loggerMu.RUnlock()
	if current != nil {
		return current
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = slog.New(newHandler(os.Stderr, Config{Level: LevelInfo}))
	}
	return logger
}
