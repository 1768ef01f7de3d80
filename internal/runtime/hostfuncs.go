package runtime

import (
	"log/slog"

	"github.com/risor-io/risor/object"
)

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, slog.String("source", "policy"))
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, slog.String("source", "policy"))
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, slog.String("source", "policy"))
}

// stringList converts a Go string slice to a Risor list.
func stringList(values []string) *object.List {
	items := make([]object.Object, len(values))
	for i, v := range values {
		items[i] = object.NewString(v)
	}
	return object.NewList(items)
}
