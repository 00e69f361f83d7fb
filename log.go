/*
Package projector – logging interface.

The default logger is backed by go-hclog; callers may plug in their own.
*/
package projector

import (
	"io"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// Logger is the interface callers may supply to a Client.
// Each method receives a structured context map (may be nil).
type Logger interface {
	Trace(message string, ctx map[string]any)
	Info(message string, ctx map[string]any)
	Error(message string, ctx map[string]any)
	Data(message string, ctx map[string]any)
}

// LogOptions configures the default hclog-backed logger.
type LogOptions struct {
	Verbose    bool      // trace and data lines too
	JSONFormat bool      // one JSON object per line
	Output     io.Writer // nil → stderr
}

// NewLogger builds the default Logger on top of hclog.
func NewLogger(opts LogOptions) Logger {
	level := hclog.Info
	if opts.Verbose {
		level = hclog.Trace
	}
	return HCLogger{L: hclog.New(&hclog.LoggerOptions{
		Name:       "projector",
		Level:      level,
		Output:     opts.Output,
		JSONFormat: opts.JSONFormat,
	})}
}

// HCLogger adapts an hclog.Logger. Data lines go out at debug level.
type HCLogger struct {
	L hclog.Logger
}

func (h HCLogger) Trace(msg string, ctx map[string]any) { h.L.Trace(msg, kvs(ctx)...) }
func (h HCLogger) Info(msg string, ctx map[string]any)  { h.L.Info(msg, kvs(ctx)...) }
func (h HCLogger) Error(msg string, ctx map[string]any) { h.L.Error(msg, kvs(ctx)...) }
func (h HCLogger) Data(msg string, ctx map[string]any)  { h.L.Debug(msg, kvs(ctx)...) }

// kvs flattens ctx into hclog's alternating key/value form, keys sorted.
func kvs(ctx map[string]any) []any {
	if len(ctx) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, k, ctx[k])
	}
	return out
}

// FuncLogger wraps a plain function: func(level, message string, ctx map[string]any).
type FuncLogger struct {
	Fn func(level, message string, ctx map[string]any)
}

func (f FuncLogger) Trace(msg string, ctx map[string]any) { f.Fn("trace", msg, ctx) }
func (f FuncLogger) Data(msg string, ctx map[string]any)  { f.Fn("data", msg, ctx) }
func (f FuncLogger) Info(msg string, ctx map[string]any)  { f.Fn("info", msg, ctx) }
func (f FuncLogger) Error(msg string, ctx map[string]any) { f.Fn("error", msg, ctx) }

// NopLogger silently discards everything.
type NopLogger struct{}

func (NopLogger) Trace(string, map[string]any) {}
func (NopLogger) Data(string, map[string]any)  {}
func (NopLogger) Info(string, map[string]any)  {}
func (NopLogger) Error(string, map[string]any) {}
