package log

// MultiLogger fans an event out to several Loggers at once — the CLI
// uses it to log to both the console SlogAdapter and a -log-file
// FileLogger in the same run.
type MultiLogger struct {
	loggers []Logger
}

func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
