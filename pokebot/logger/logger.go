package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeCatalog LogType = "CAT"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
)

// skippedMessages are chatty gateway internals nobody reads.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

var internalAttrs = map[string]bool{
	"type":      true,
	"name":      true,
	"user_name": true,
	"status":    true,
	"error":     true,
	"took":      true,
}

// CustomHandler prints one colored line per record:
// [PokePacks] [15:04:05] [LEVEL] [TYPE] message key=value...
type CustomHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
	now   func() time.Time
}

func NewHandler(level slog.Leveler) *CustomHandler {
	return newHandler(os.Stdout, level)
}

func newHandler(out io.Writer, level slog.Leveler) *CustomHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &CustomHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
		now:   time.Now,
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup is a no-op; the console format has no room for nesting.
func (h *CustomHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(r.Message) {
		return nil
	}

	levelColor, levelText := levelStyle(r.Level)
	fields := collect(h.attrs, r)

	message := r.Message
	if r.Level >= slog.LevelError {
		if loc := errorLocation(fields); loc != "" {
			message = fmt.Sprintf("%s (%s)", message, loc)
		}
		if details := fields.get("error"); details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if name, user := fields.get("name"), fields.get("user_name"); name != "" && user != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, name, user)
	} else if name != "" {
		message = fmt.Sprintf("%s [%s]", message, name)
	}
	if status := fields.get("status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if took := fields.get("took"); took != "" {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	var extra strings.Builder
	for _, a := range fields {
		if !internalAttrs[a.Key] {
			fmt.Fprintf(&extra, " %s=%v", a.Key, a.Value)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "%s[PokePacks] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		h.now().Format("15:04:05"),
		levelColor,
		levelText,
		colorWhite,
		logType(fields.get("type")),
		message,
		extra.String(),
		colorReset,
	)
	return err
}

type attrList []slog.Attr

func (l attrList) get(key string) string {
	for _, a := range l {
		if a.Key == key {
			return a.Value.String()
		}
	}
	return ""
}

func collect(base []slog.Attr, r slog.Record) attrList {
	fields := make(attrList, 0, len(base)+r.NumAttrs())
	fields = append(fields, base...)
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a)
		return true
	})
	return fields
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level >= slog.LevelError:
		return colorRed, "ERROR"
	case level >= slog.LevelWarn:
		return colorYellow, "WARN"
	case level >= slog.LevelInfo:
		return colorGreen, "INFO"
	default:
		return colorPurple, "DEBUG"
	}
}

func logType(t string) LogType {
	switch t {
	case "cmd":
		return TypeCommand
	case "db":
		return TypeDB
	case "catalog":
		return TypeCatalog
	case "error":
		return TypeError
	default:
		return TypeSystem
	}
}

func shouldSkipLog(msg string) bool {
	msg = strings.ToLower(msg)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func errorLocation(fields attrList) string {
	if loc := fields.get("error_location"); loc != "" {
		return loc
	}
	// Handle <- slog.(*Logger).log <- slog.Error <- caller
	_, file, line, ok := runtime.Caller(4)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
