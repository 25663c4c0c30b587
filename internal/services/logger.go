package services

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ServiceIdentifier interface {
	ID() string
}

// NewServiceLogger returns the global logger tagged with the service id.
func NewServiceLogger(svc ServiceIdentifier) zerolog.Logger {
	return log.With().Str("service", svc.ID()).Logger()
}

// ComponentLogger derives a child logger for a component owned by a service.
func ComponentLogger(parent zerolog.Logger, component string) zerolog.Logger {
	return parent.With().Str("component", component).Logger()
}

// SetGlobalLevel applies LOG_LEVEL. Unknown values fall back to info.
func SetGlobalLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}
