package logging

import (
	"log/slog"
)

// WithComponent tags every record with the emitting subsystem.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
