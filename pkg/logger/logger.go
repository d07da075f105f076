// Package logger carries a logrus entry through context.Context. Packages log
// through G(ctx) so that fields attached once, such as the skill being loaded
// or the HTTP request being served, appear on every line below that point.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Format names a log line encoding
type Format string

const (
	// FormatText writes logfmt-style lines
	FormatText Format = "fmt"
	// FormatJSON writes one JSON object per line
	FormatJSON Format = "json"
)

var (
	// G returns the logger carried by ctx
	G = GetLogger
	// L is the process-wide entry used when ctx carries none. It writes to
	// stderr so command output on stdout stays machine readable.
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// ParseFormat accepts "fmt", "text" or "json"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fmt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", errors.Errorf("invalid log format %q, expected fmt or json", s)
	}
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.Formatter = formatter(FormatText)
	return l
}

func formatter(format Format) logrus.Formatter {
	if format == FormatJSON {
		return &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	}
	return &logrus.TextFormatter{
		TimestampFormat: time.RFC3339Nano,
		FullTimestamp:   true,
	}
}

// WithLogger returns a context carrying entry
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry.WithContext(ctx))
}

// WithFields layers fields on top of the logger already in ctx
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return WithLogger(ctx, G(ctx).WithFields(fields))
}

// WithSkill tags every line logged below ctx with the skill directory
func WithSkill(ctx context.Context, dir string) context.Context {
	return WithFields(ctx, logrus.Fields{"skill_dir": dir})
}

// GetLogger returns the entry stored in ctx, or L bound to ctx
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return L.WithContext(ctx)
}

// SetLogLevel sets the level of the global logger
func SetLogLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	L.Logger.SetLevel(parsed)
	return nil
}

// SetLogFormat switches the global logger's encoding. Unknown names fall back
// to text; use ParseFormat to reject them.
func SetLogFormat(format string) {
	parsed, err := ParseFormat(format)
	if err != nil {
		parsed = FormatText
	}
	L.Logger.Formatter = formatter(parsed)
}

// SetLogOutput redirects the global logger
func SetLogOutput(w io.Writer) {
	L.Logger.SetOutput(w)
}

// Configure applies a level and a format from configuration. Empty values
// leave the current setting alone.
func Configure(level, format string) error {
	if level != "" {
		if err := SetLogLevel(level); err != nil {
			return err
		}
	}
	if format == "" {
		return nil
	}
	parsed, err := ParseFormat(format)
	if err != nil {
		return err
	}
	L.Logger.Formatter = formatter(parsed)
	return nil
}
