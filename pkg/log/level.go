package log

import (
	"errors"
	"strings"
)

// Level is the severity of an entry. Higher is more severe.
type Level int8

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

// ErrInvalidLevel is returned when parsing an unknown level name.
var ErrInvalidLevel = errors.New("invalid log level")

var levelByName = map[string]Level{
	"trace":   Trace,
	"debug":   Debug,
	"info":    Info,
	"warn":    Warn,
	"warning": Warn,
	"error":   Error,
	"fatal":   Fatal,
}

func (l Level) String() string {
	switch l {
	case Trace:
		return "TRACE"
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// ParseLevel parses a case-insensitive level name. Unknown names yield
// Info and ErrInvalidLevel.
func ParseLevel(s string) (Level, error) {
	if l, ok := levelByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return Info, ErrInvalidLevel
}

// UnmarshalText lets levels be read from YAML and flags.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Enables reports whether a logger at level l emits entries at target.
func (l Level) Enables(target Level) bool {
	return target >= l
}
