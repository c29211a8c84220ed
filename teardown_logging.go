package scope

// TeardownLogEvent describes one exit-hook failure observed during a group
// teardown pass. Suppressed failures never reach the caller; this channel is
// the only place they surface.
type TeardownLogEvent struct {
	Label      string
	Index      int
	Unwinding  bool
	Suppressed bool
	Err        error
}

// TeardownLogger records teardown failures, surfaced or suppressed.
type TeardownLogger interface {
	LogTeardown(TeardownLogEvent)
}

// TeardownLoggerFunc adapts a function to TeardownLogger.
type TeardownLoggerFunc func(TeardownLogEvent)

// LogTeardown implements TeardownLogger.
func (f TeardownLoggerFunc) LogTeardown(event TeardownLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopTeardownLogger struct{}

func (noopTeardownLogger) LogTeardown(TeardownLogEvent) {}
