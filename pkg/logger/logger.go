package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	log      *slog.Logger
	logFile  *os.File
	logLevel = slog.LevelInfo
)

const (
	INFO = iota
	DEBUG
)

// InitLogger sends log output to stderr and, when filename is set, appends it to that file too.
func InitLogger(filename string, level int) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	var out io.Writer = os.Stderr
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log = newLogger(os.Stderr, logLevel)
			return fmt.Errorf("open log file %s: %w", filename, err)
		}
		logFile = f
		out = io.MultiWriter(os.Stderr, f)
	}

	logLevel = slog.LevelInfo
	if level == DEBUG {
		logLevel = slog.LevelDebug
	}
	log = newLogger(out, logLevel)
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a level name from the environment to INFO or DEBUG.
func ParseLevel(name string) int {
	if strings.EqualFold(strings.TrimSpace(name), "debug") {
		return DEBUG
	}
	return INFO
}

// Close releases the log file opened by InitLogger, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		log = newLogger(os.Stderr, logLevel)
	}
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log = newLogger(os.Stderr, logLevel)
	}
	return log
}

// With returns a structured logger for callers that want key/value attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

func Info(format string, v ...interface{}) {
	current().Info(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Debugf(format string, v ...interface{}) {
	current().Debug(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	current().Error(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

func Warn(format string, v ...interface{}) {
	current().Warn(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}
