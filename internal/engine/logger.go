package engine

import (
	"io"
	"log"
)

// Logger is the engine's leveled log sink: a timestamped text line per
// event at debug/info/warning/critical severity, written to whatever
// io.Writer the caller supplies (typically the configured log file). It
// wraps a single *log.Logger with timestamp flags, adding an explicit level
// prefix instead of relying on call-site wording alone.
type Logger struct {
	out *log.Logger
}

// NewLogger wraps w in a Logger with date/time/microsecond timestamps.
func NewLogger(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.out.Printf("DEBUG: "+format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.out.Printf("INFO: "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.out.Printf("WARNING: "+format, args...)
}

func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.out.Printf("CRITICAL: "+format, args...)
}
