package log

import (
	"fmt"
	"strings"
)

// Field is a single structured logging attribute.
type Field struct {
	Key   string
	Value interface{}
}

// Str builds a string Field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int Field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 builds an int64 Field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Bool builds a bool Field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Err builds an "error" Field from err. If err is nil the Field is still
// emitted, with a nil value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any builds a Field from an arbitrary value, stored unchanged; rendering
// is left to the configured formatter.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Component builds a Field tagging the log entry with a component name.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

// Duration builds a Field from a value implementing Stringer-like duration formatting.
func Duration(key string, value fmt.Stringer) Field { return Field{Key: key, Value: value.String()} }

// ParseLevel parses a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}
