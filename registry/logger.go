package registry

import "github.com/hupe1980/entitymesh/logging"

// loggerAdapter wraps a logging.Logger and guarantees a non-nil logger by
// substituting a NoOpLogger when constructed with nil.
type loggerAdapter struct {
	logger logging.Logger
}

func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &loggerAdapter{logger: l}
}

// Logger returns the underlying logger.
func (l *loggerAdapter) Logger() logging.Logger {
	return l.logger
}

func (l *loggerAdapter) logWarn(msg string, args ...any) { l.logger.Warn(msg, args...) }

func (l *loggerAdapter) logError(msg string, args ...any) { l.logger.Error(msg, args...) }

// withRegistry scopes a MeshLogger to one registry. Other loggers are shared.
func (l *loggerAdapter) withRegistry(name string) *loggerAdapter {
	if ml, ok := l.logger.(*logging.MeshLogger); ok {
		return &loggerAdapter{logger: ml.WithRegistry(name)}
	}
	return l
}

func (l *loggerAdapter) logResolveMiss(ref string, err error) {
	if ml, ok := l.logger.(*logging.MeshLogger); ok {
		ml.LogResolveMiss(ref, err)
		return
	}
	if err != nil {
		l.logWarn("Reference resolution failed", "ref", ref, "error", err)
		return
	}
	l.logWarn("Reference did not resolve", "ref", ref)
}
