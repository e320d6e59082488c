// Package logger provides per-component slog loggers for the probe. The
// plugin's result owns stdout, so log output goes to stderr unless Configure
// says otherwise.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	defaultLevel    slog.Level
	componentLevels map[string]slog.Level
	levelsMu        sync.RWMutex
	format          string
	output          io.Writer
	outputMu        sync.Mutex
	pid             int
	loggerCache     sync.Map
)

func init() {
	defaultLevel = slog.LevelWarn
	componentLevels = make(map[string]slog.Level)
	format = "text"
	output = os.Stderr
	pid = os.Getpid()
}

// Configure replaces the output, format and levels. Loggers returned by Get
// before the call keep their old handler.
func Configure(w io.Writer, logFormat string, level LogLevel, components map[string]LogLevel) {
	levelsMu.Lock()
	defaultLevel = parseLevel(string(level))
	format = strings.ToLower(logFormat)
	if w != nil {
		output = w
	}
	componentLevels = make(map[string]slog.Level, len(components))
	for name, lvl := range components {
		componentLevels[name] = parseLevel(string(lvl))
	}
	levelsMu.Unlock()

	loggerCache.Range(func(k, _ any) bool {
		loggerCache.Delete(k)
		return true
	})
}

// VerbosityLevel maps the plugin's -v count onto a log level.
func VerbosityLevel(verbose int) LogLevel {
	switch {
	case verbose >= 2:
		return LogLevelDebug
	case verbose == 1:
		return LogLevelInfo
	default:
		return LogLevelWarn
	}
}

// TextHandler writes one line per record:
//
//	2006/01/02 15:04:05.000 [pid] [component] LEVEL message key=value ...
//
// Attributes keep the order in which they were added.
type TextHandler struct {
	w         io.Writer
	attrs     []slog.Attr
	component string
}

func NewTextHandler(w io.Writer, component string) *TextHandler {
	return &TextHandler{w: w, component: component}
}

func (h *TextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= getEffectiveLevel(h.component)
}

func (h *TextHandler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006/01/02 15:04:05.000"))
	fmt.Fprintf(&b, " [%d]", pid)
	if h.component != "" {
		fmt.Fprintf(&b, " [%s]", h.component)
	}
	b.WriteByte(' ')
	b.WriteString(r.Level.String())
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	outputMu.Lock()
	defer outputMu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve().String()
	if strings.ContainsAny(v, " \"=") {
		v = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(b, " %s=%s", a.Key, v)
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TextHandler{w: h.w, attrs: merged, component: h.component}
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	return &TextHandler{w: h.w, attrs: h.attrs, component: joinComponent(h.component, name)}
}

// JSONHandler adds the component to every record of a slog.JSONHandler.
type JSONHandler struct {
	inner     slog.Handler
	component string
}

func newJSONHandler(w io.Writer, component string) *JSONHandler {
	return &JSONHandler{
		inner:     slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		component: component,
	}
}

func (h *JSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= getEffectiveLevel(h.component)
}

func (h *JSONHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.component != "" {
		r.AddAttrs(slog.String("component", h.component))
	}
	return h.inner.Handle(ctx, r)
}

func (h *JSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JSONHandler{inner: h.inner.WithAttrs(attrs), component: h.component}
}

func (h *JSONHandler) WithGroup(name string) slog.Handler {
	return &JSONHandler{inner: h.inner, component: joinComponent(h.component, name)}
}

func joinComponent(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEffectiveLevel walks up dotted component names ("probe.receive" falls
// back to "probe") before using the default level.
func getEffectiveLevel(component string) slog.Level {
	levelsMu.RLock()
	defer levelsMu.RUnlock()

	path := component
	for path != "" {
		if level, ok := componentLevels[path]; ok {
			return level
		}
		idx := strings.LastIndex(path, ".")
		if idx < 0 {
			break
		}
		path = path[:idx]
	}

	return defaultLevel
}

// Get returns the cached logger for a component.
func Get(name string) *slog.Logger {
	if l, ok := loggerCache.Load(name); ok {
		return l.(*slog.Logger)
	}

	levelsMu.RLock()
	w, f := output, format
	levelsMu.RUnlock()

	var handler slog.Handler
	if f == "json" {
		handler = newJSONHandler(w, name)
	} else {
		handler = NewTextHandler(w, name)
	}

	l, _ := loggerCache.LoadOrStore(name, slog.New(handler))
	return l.(*slog.Logger)
}

func SetComponentLevel(name string, level LogLevel) {
	levelsMu.Lock()
	componentLevels[name] = parseLevel(string(level))
	levelsMu.Unlock()
}

type ProbeAttrs struct {
	ProbeID   string
	Interface string
	XID       uint32
	Mode      string
	Target    string
}

// WithProbe attaches the non-empty run attributes to logger.
func WithProbe(logger *slog.Logger, attrs ProbeAttrs) *slog.Logger {
	args := make([]any, 0, 10)

	if attrs.ProbeID != "" {
		args = append(args, "probe_id", attrs.ProbeID)
	}
	if attrs.Interface != "" {
		args = append(args, "interface", attrs.Interface)
	}
	if attrs.XID != 0 {
		args = append(args, "xid", fmt.Sprintf("0x%08x", attrs.XID))
	}
	if attrs.Mode != "" {
		args = append(args, "mode", attrs.Mode)
	}
	if attrs.Target != "" {
		args = append(args, "target", attrs.Target)
	}

	return logger.With(args...)
}
