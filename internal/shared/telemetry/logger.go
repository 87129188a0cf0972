package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewJSONHandler(stdout{}, nil))
)

// stdout resolves os.Stdout on every write so tests can swap it.
type stdout struct{}

func (stdout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// Setup selects the output format: "pretty" for colored console output, anything else for JSON lines.
func Setup(format string) {
	SetOutput(format, stdout{})
}

// SetOutput is Setup with an explicit destination.
func SetOutput(format string, w io.Writer) {
	var handler slog.Handler
	switch format {
	case "pretty", "console", "text":
		opts := slogcolor.DefaultOptions
		opts.MsgColor = color.New(color.FgMagenta)
		opts.SrcFileMode = slogcolor.Nop
		handler = slogcolor.NewHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, nil)
	}
	mu.Lock()
	logger = slog.New(handler)
	mu.Unlock()
}

// Logger returns the shared slog logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(slog.LevelInfo, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(slog.LevelWarn, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(slog.LevelError, msg, fields)
}

func write(level slog.Level, msg string, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	Logger().LogAttrs(context.Background(), level, msg, attrs...)
}
