package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is satisfied by both root logrus loggers and derived entries, so
// request-scoped loggers carrying extra fields can travel through the same
// interface.
type Logger interface {
	logrus.FieldLogger
}

func New() Logger {
	return NewWithLevel(logrus.InfoLevel)
}

func NewWithLevel(level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return l
}

type loggerContextKey struct{}

func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the request-scoped logger, falling back to a fresh
// default logger when none was attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(Logger); ok {
		return l
	}
	return New()
}
