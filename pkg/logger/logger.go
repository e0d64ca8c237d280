// Package logger writes one JSON object per line. The component and device
// of a logger are lifted to top-level keys so the lines of one visitor
// session can be filtered without parsing the field map.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps LOG_LEVEL values; anything unrecognised is info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// FIELDS
// ═══════════════════════════════════════════════════════════════════════════

// Field is one key/value pair of a log line.
type Field struct {
	Key   string
	Value any
}

const (
	componentKey = "component"
	deviceKey    = "device_id"
	// RequestIDKey is the field WithRequestID sets.
	RequestIDKey = "request_id"
)

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err records err's message under "error". A nil error is logged as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Component and DeviceID are lifted out of the field map; see Entry.
func Component(name string) Field { return String(componentKey, name) }
func DeviceID(id string) Field    { return String(deviceKey, id) }

func AchievementID(id string) Field { return String("achievement_id", id) }
func EventType(t string) Field      { return String("event_type", t) }
func StorageKey(key string) Field   { return String("storage_key", key) }
func Points(p int) Field            { return Int("points", p) }
func Operation(name string) Field   { return String("operation", name) }
func Latency(d time.Duration) Field { return Field{Key: "latency_ms", Value: d.Milliseconds()} }

// ═══════════════════════════════════════════════════════════════════════════
// LOGGER
// ═══════════════════════════════════════════════════════════════════════════

// Entry is the JSON shape of one line.
type Entry struct {
	Time      string         `json:"time"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Device    string         `json:"device_id,omitempty"`
	Message   string         `json:"msg"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// sink is shared by a logger and everything derived from it with With, so
// concurrent writers never interleave a line.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

type Logger struct {
	sink      *sink
	level     Level
	addCaller bool
	now       func() time.Time

	component string
	device    string
	fields    []Field
}

type Options struct {
	// Output defaults to os.Stdout.
	Output    io.Writer
	Level     Level
	AddCaller bool
	// Now stamps lines; defaults to time.Now.
	Now func() time.Time
}

func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Logger{
		sink:      &sink{out: opts.Output},
		level:     opts.Level,
		addCaller: opts.AddCaller,
		now:       opts.Now,
	}
}

// Default logs info and above to stdout.
func Default() *Logger {
	return New(Options{})
}

// With returns a logger that adds fields to every line. A Component or
// DeviceID field replaces the one already set.
func (l *Logger) With(fields ...Field) *Logger {
	next := *l
	next.fields = make([]Field, 0, len(l.fields)+len(fields))
	next.fields = append(next.fields, l.fields...)
	for _, f := range fields {
		switch f.Key {
		case componentKey:
			next.component = fmt.Sprint(f.Value)
		case deviceKey:
			next.device = fmt.Sprint(f.Value)
		default:
			next.fields = append(next.fields, f)
		}
	}
	return &next
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := Entry{
		Time:      l.now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Component: l.component,
		Device:    l.device,
		Message:   msg,
	}
	if l.addCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = fmt.Sprintf("%s:%d", file[strings.LastIndex(file, "/")+1:], line)
		}
	}

	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			switch f.Key {
			case componentKey:
				entry.Component = fmt.Sprint(f.Value)
			case deviceKey:
				entry.Device = fmt.Sprint(f.Value)
			default:
				entry.Fields[f.Key] = f.Value
			}
		}
		if len(entry.Fields) == 0 {
			entry.Fields = nil
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"time":%q,"level":%q,"msg":%q}`, entry.Time, entry.Level, msg))
	}
	data = append(data, '\n')

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = l.sink.out.Write(data)
}

// ═══════════════════════════════════════════════════════════════════════════
// CONTEXT
// ═══════════════════════════════════════════════════════════════════════════

type ctxKey struct{}

func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger, or Default when none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}
