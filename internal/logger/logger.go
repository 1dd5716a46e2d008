package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Level = logrus.Level

const (
	LevelDebug = logrus.DebugLevel
	LevelInfo  = logrus.InfoLevel
	LevelWarn  = logrus.WarnLevel
	LevelError = logrus.ErrorLevel
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

var (
	log = newLogger()

	// logFile is the file opened by Setup, closed when the output changes.
	logFile *os.File
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(LevelInfo)
	return l
}

// Setup configures level and destination by environment. An empty path
// keeps stderr.
func Setup(env, path string) error {
	switch env {
	case EnvLocal:
		log.SetLevel(LevelDebug)
	case EnvDev:
		log.SetLevel(LevelInfo)
	default:
		log.SetLevel(LevelWarn)
	}

	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	SetOutput(f)
	logFile = f
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return nil
}

func SetLevel(level Level) {
	log.SetLevel(level)
}

// SetOutput redirects the logger and closes a file opened by Setup.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
	if logFile != nil && logFile != w {
		logFile.Close()
		logFile = nil
	}
}

// Close releases the log file opened by Setup, if any, and falls back to
// stderr.
func Close() error {
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func Debug(ctx context.Context, msg string, kv ...any) {
	entry(ctx, kv).Debug(msg)
}

func Info(ctx context.Context, msg string, kv ...any) {
	entry(ctx, kv).Info(msg)
}

func Warn(ctx context.Context, msg string, kv ...any) {
	entry(ctx, kv).Warn(msg)
}

// Error logs msg with err attached. err may be nil.
func Error(ctx context.Context, err error, msg string, kv ...any) {
	e := entry(ctx, kv)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func entry(ctx context.Context, kv []any) *logrus.Entry {
	fields := logrus.Fields{}
	if ctx != nil {
		if id := middleware.GetReqID(ctx); id != "" {
			fields["request_id"] = id
		}
	}

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok || i+1 == len(kv) {
			fields["!BADKEY"] = kv[i]
			continue
		}
		fields[key] = kv[i+1]
	}

	return log.WithFields(fields)
}
