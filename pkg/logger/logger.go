package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New creates a new logger instance
func New(serviceName string, environment string) *Logger {
	var output io.Writer = os.Stdout

	if environment == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{Logger: logger}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("request_id", requestID).Logger(),
	}
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("component", component).Logger(),
	}
}

// WithEngine returns a logger with the OCR engine name attached
func (l *Logger) WithEngine(engine string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("engine", engine).Logger(),
	}
}

// WithCrewMemberID returns a logger with the crew member ID attached
func (l *Logger) WithCrewMemberID(crewMemberID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("crew_member_id", crewMemberID).Logger(),
	}
}
