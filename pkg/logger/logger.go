package logger

import (
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = newLogger("info")
)

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init reconfigures the global logger level. Safe to call more than once.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(level)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func toFields(component string, fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	out = append(out, zap.String("component", component))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

func DebugC(component, msg string) {
	current().Debug(msg, zap.String("component", component))
}

func DebugCF(component, msg string, fields map[string]interface{}) {
	current().Debug(msg, toFields(component, fields)...)
}

func InfoC(component, msg string) {
	current().Info(msg, zap.String("component", component))
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	current().Info(msg, toFields(component, fields)...)
}

func WarnC(component, msg string) {
	current().Warn(msg, zap.String("component", component))
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	current().Warn(msg, toFields(component, fields)...)
}

func ErrorC(component, msg string) {
	current().Error(msg, zap.String("component", component))
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	current().Error(msg, toFields(component, fields)...)
}
