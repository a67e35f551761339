package modkit

import (
	"dlguard/internal/platform/config"
	"dlguard/internal/platform/logger"
)

// Deps holds the core dependencies passed to every module
type Deps struct {
	Log *logger.Logger
	Cfg config.Conf
}

// Logger returns Log, falling back to the root logger for zero-value Deps in tests
func (d Deps) Logger() *logger.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Get()
}
