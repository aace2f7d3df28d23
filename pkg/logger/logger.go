// Package logger provides structured logging over logrus for the dialogue agent.
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// EpisodeIDFieldKey is the field key used for the episode id in log entries
	EpisodeIDFieldKey = "episode_id"
)

// LogField represents a structured log field with concrete types
type LogField struct {
	Key   string
	Value string
}

// Logger interface with simplified, focused methods
type Logger interface {
	Info(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
	Debug(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	WithFields(fields ...LogField) Logger
	WithEpisodeID(id string) Logger
}

// Config represents logger configuration
type Config struct {
	Level   Level
	Format  string
	Service string
	// Output defaults to os.Stderr so log lines stay out of the dialogue on stdout.
	Output io.Writer
}

// logger implements the Logger interface
type logger struct {
	logrus  *logrus.Logger
	fields  []LogField
	service string
}

// NewLogger creates a new logger instance with the given configuration
func NewLogger(config Config) Logger {
	logrusLogger := logrus.New()

	if config.Format == "text" {
		logrusLogger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	} else {
		logrusLogger.SetFormatter(&logrus.JSONFormatter{})
	}

	if config.Output != nil {
		logrusLogger.SetOutput(config.Output)
	} else {
		logrusLogger.SetOutput(os.Stderr)
	}

	logrusLogger.SetLevel(config.Level.logrusLevel())

	var serviceFields []LogField
	if config.Service != "" {
		serviceFields = []LogField{{Key: "service", Value: config.Service}}
	}

	return &logger{
		logrus:  logrusLogger,
		fields:  serviceFields,
		service: config.Service,
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return NewLogger(Config{Level: ErrorLevel, Output: io.Discard})
}

// WithFields returns a new logger with additional fields (immutable)
func (l *logger) WithFields(fields ...LogField) Logger {
	newFields := make([]LogField, 0, len(l.fields)+len(fields))
	newFields = append(newFields, l.fields...)
	newFields = append(newFields, fields...)

	return &logger{
		logrus:  l.logrus,
		fields:  newFields,
		service: l.service,
	}
}

// WithEpisodeID returns a new logger tagged with the episode id
func (l *logger) WithEpisodeID(id string) Logger {
	return l.WithFields(EpisodeIDField(id))
}

// Info logs an info message with optional fields
func (l *logger) Info(msg string, fields ...LogField) {
	l.log(logrus.InfoLevel, msg, fields...)
}

// Error logs an error message with optional fields
func (l *logger) Error(msg string, fields ...LogField) {
	l.log(logrus.ErrorLevel, msg, fields...)
}

// Debug logs a debug message with optional fields
func (l *logger) Debug(msg string, fields ...LogField) {
	l.log(logrus.DebugLevel, msg, fields...)
}

// Warn logs a warning message with optional fields
func (l *logger) Warn(msg string, fields ...LogField) {
	l.log(logrus.WarnLevel, msg, fields...)
}

func (l *logger) log(level logrus.Level, msg string, fields ...LogField) {
	if !l.logrus.IsLevelEnabled(level) {
		return
	}

	logrusFields := make(logrus.Fields, len(l.fields)+len(fields))
	for _, field := range l.fields {
		logrusFields[field.Key] = field.Value
	}
	for _, field := range fields {
		logrusFields[field.Key] = field.Value
	}

	l.logrus.WithFields(logrusFields).Log(level, msg)
}

// StringField returns a LogField for a string value.
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField returns a LogField for an integer value.
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: strconv.Itoa(value)}
}

// BoolField returns a LogField for a boolean value.
func BoolField(key string, value bool) LogField {
	return LogField{Key: key, Value: strconv.FormatBool(value)}
}

// DurationField returns a LogField for a time.Duration value.
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// ErrorField returns a LogField for an error value.
func ErrorField(err error) LogField {
	if err == nil {
		return LogField{Key: "error", Value: "<nil>"}
	}
	return LogField{Key: "error", Value: err.Error()}
}

// Field creates a log field with automatic type conversion for less common types
func Field[T any](key string, value T) LogField {
	return LogField{Key: key, Value: convertValue(value)}
}

func convertValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return v.String()
	case error:
		if v == nil {
			return "<nil>"
		}
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// EpisodeIDField returns a LogField for an episode id.
func EpisodeIDField(id string) LogField {
	return StringField(EpisodeIDFieldKey, id)
}

// AgentIDField returns a LogField for a dialogue agent id.
func AgentIDField(id string) LogField {
	return StringField("agent_id", id)
}
