// Package logger provides the structured logger shared by the server and the CLI.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"cvbatch/internal/config"
)

// Standard field names.
const (
	FieldRequestID = "request_id"
	FieldBatchID   = "batch_id"
	FieldFile      = "file"
	FieldStrategy  = "strategy"
	FieldComponent = "component"
)

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// Logger wraps logrus.Entry to provide structured logging with context support.
type Logger struct {
	*logrus.Entry
}

var (
	closer   io.Closer
	closerMu sync.Mutex
)

// New creates a Logger writing to out. Used by tests and as the process default.
func New(level, format string, out io.Writer) *Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetReportCaller(true)
	log.SetFormatter(formatter(format))

	return &Logger{Entry: log.WithField("service", "cvbatch")}
}

// NewFromConfig creates a Logger from application config. When a log file is
// configured, output goes to stdout and to a rotating file.
func NewFromConfig(cfg *config.LogConfig) *Logger {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		fw := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		closerMu.Lock()
		closer = fw
		closerMu.Unlock()
		out = io.MultiWriter(os.Stdout, fw)
	}
	return New(cfg.Level, cfg.Format, out)
}

// Sync closes the rotating log file, if any.
func Sync() error {
	closerMu.Lock()
	defer closerMu.Unlock()
	if closer != nil {
		return closer.Close()
	}
	return nil
}

func formatter(format string) logrus.Formatter {
	if strings.EqualFold(format, "text") || strings.EqualFold(format, "console") {
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02T15:04:05.000Z07:00",
			CallerPrettyfier: callerPrettyfier,
		}
	}
	return &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: callerPrettyfier,
	}
}

// WithFields returns a new Logger with additional fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a new Logger with a single additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithError returns a new Logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	funcName := frame.Function
	if idx := strings.LastIndex(funcName, "/"); idx != -1 {
		funcName = funcName[idx+1:]
	}
	return funcName, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}
