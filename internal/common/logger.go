package common

import (
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
)

// ServiceLogger provides structured debug logging for DI services. Debug
// output is off by default and gated per service so noisy workflows (quote
// refresh, split probes) can be enabled selectively.
type ServiceLogger struct {
	svc container.IInstance

	debug   bool
	enabled map[string]struct{}
}

// NewServiceLogger creates a new logger for a service
func NewServiceLogger(svc container.IInstance) *ServiceLogger {
	return &ServiceLogger{svc: svc, enabled: make(map[string]struct{})}
}

func (l *ServiceLogger) SetDebugMode(debug bool) {
	l.debug = debug
}

func (l *ServiceLogger) EnableMethod(method string) {
	l.enabled[method] = struct{}{}
}

func (l *ServiceLogger) Info(msg string, method string) string {
	if l.allows(method) {
		log.Info().Str("service", l.svc.ID()).Str("method", method).Msg(msg)
	}
	return msg
}

func (l *ServiceLogger) Error(err error, msg string, method string) string {
	if l.allows(method) {
		log.Error().Str("service", l.svc.ID()).Str("method", method).Err(err).Msg(msg)
	}
	return msg
}

func (l *ServiceLogger) allows(method string) bool {
	if !l.debug {
		return false
	}
	if len(l.enabled) == 0 {
		return true
	}
	_, ok := l.enabled[method]
	return ok
}
