package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the handler and output of the process logger.
type Options struct {
	Format    string // "text" (tint) or "json"
	Level     slog.Level
	AddSource bool
	FilePath  string // optional file tee, appended to
}

var (
	mu      sync.RWMutex
	current = newLogger(os.Stderr, Options{Format: "text", Level: slog.LevelInfo})
	logFile *os.File
)

// InitLogger installs the process logger. Output goes to stderr and, when
// FilePath is set, to that file as well.
func InitLogger(opts Options) error {
	var out io.Writer = os.Stderr

	mu.Lock()
	defer mu.Unlock()

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		out = io.MultiWriter(os.Stderr, f)
	}

	current = newLogger(out, opts)
	slog.SetDefault(current)
	return nil
}

// New builds a logger on an arbitrary writer without installing it.
func New(w io.Writer, opts Options) *slog.Logger {
	return newLogger(w, opts)
}

func newLogger(w io.Writer, opts Options) *slog.Logger {
	var h slog.Handler
	switch opts.Format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		})
	default:
		h = tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			AddSource:  opts.AddSource,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(h)
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// L returns the process logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Infof(format string, v ...interface{}) {
	L().Info(fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) {
	L().Debug(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	L().Error(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	L().Warn(fmt.Sprintf(format, v...))
}
