package mylog

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/MarcGrol/cartbackend/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	componentName string
	logger        zerolog.Logger
}

func newStandardLogger(componentName string) Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return standardLogger{
		componentName: componentName,
		logger:        zerolog.New(output).With().Timestamp().Str("component", componentName).Logger(),
	}
}

func (l standardLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	event := l.logger.WithLevel(levelOf(severity))
	if traceLabel != "" {
		event = event.Str("aggregate", traceLabel)
	}
	if trace := mycontext.TraceFromContext(ctx); trace != "" {
		event = event.Str("trace", trace)
	}
	event.Msgf(format, a...)
}

func levelOf(severity Severity) zerolog.Level {
	switch severity {
	case SeverityDebug:
		return zerolog.DebugLevel
	case SeverityWarn:
		return zerolog.WarnLevel
	case SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
