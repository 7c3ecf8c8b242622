package logger

import (
	"context"
	"sync"
)

type contextKey struct{}

var loggerKey = contextKey{}

var (
	defaultLogger   = New(nil)
	defaultLoggerMu sync.RWMutex
)

// GetDefault returns the logger used when a context carries none.
func GetDefault() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the default logger. nil is ignored.
func SetDefaultLogger(l *Logger) {
	if l == nil {
		return
	}
	defaultLoggerMu.Lock()
	defaultLogger = l
	defaultLoggerMu.Unlock()
}

// WithContext returns a new context with the logger attached.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or the default logger.
func FromContext(ctx context.Context) *Logger {
	return FromContextOr(ctx, nil)
}

// FromContextOr returns the logger attached to ctx. A context without one
// yields fallback, and a nil fallback yields the default logger.
// Parameters:
//   - ctx: context to inspect; may be nil.
//   - fallback: logger owned by the caller, such as a service's own logger.
// Returns:
//   - *Logger: never nil.
func FromContextOr(ctx context.Context, fallback *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return GetDefault()
}

// WithField creates a new context with a single additional field.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	return FromContext(ctx).WithField(key, value).WithContext(ctx)
}

// WithFields creates a new context with additional fields added to the logger.
func WithFields(ctx context.Context, fields Fields) context.Context {
	return FromContext(ctx).WithFields(fields).WithContext(ctx)
}

// Scope tags ctx with the component doing the work and, when non-empty, the
// source adapter it talks to.
func Scope(ctx context.Context, component, sourceID string) context.Context {
	return FromContext(ctx).Scope(ctx, component, sourceID)
}

// Scope is like the package-level Scope but starts from l instead of the
// logger already in ctx.
func (l *Logger) Scope(ctx context.Context, component, sourceID string) context.Context {
	fields := Fields{FieldComponent: component}
	if sourceID != "" {
		fields[FieldSource] = sourceID
	}
	return l.WithFields(fields).WithContext(ctx)
}

// SetRequestID sets the request ID field in context.
func SetRequestID(ctx context.Context, id string) context.Context {
	return WithField(ctx, FieldRequestID, id)
}

// SetSearchID sets the search ID field in context.
func SetSearchID(ctx context.Context, id string) context.Context {
	return WithField(ctx, FieldSearchID, id)
}

// SetComponent sets the component name field in context.
func SetComponent(ctx context.Context, name string) context.Context {
	return WithField(ctx, FieldComponent, name)
}

// SetSource sets the source adapter field in context.
func SetSource(ctx context.Context, sourceID string) context.Context {
	return WithField(ctx, FieldSource, sourceID)
}

// SetCatalog sets the catalog field in context.
func SetCatalog(ctx context.Context, catalogID string) context.Context {
	return WithField(ctx, FieldCatalog, catalogID)
}

// GetField extracts a field value from the context's logger.
func GetField(ctx context.Context, key string) (interface{}, bool) {
	val, ok := FromContext(ctx).Data[key]
	return val, ok
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	val, _ := GetField(ctx, FieldRequestID)
	str, _ := val.(string)
	return str
}
