// Package tally provides the structured logger used by refcheck. It
// wraps charmbracelet/log and counts every error, warning, and info
// message it emits, so a run can end with a summary of those totals.
package tally

import (
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"
)

// Prefix is prepended to every log line.
const Prefix = "REFCHECK"

// Counters are the running message totals of a Logger. They only ever
// increase.
type Counters struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

func (c Counters) String() string {
	return fmt.Sprintf("%d errors, %d warnings, %d infos", c.Errors, c.Warnings, c.Infos)
}

// Logger is a counting structured logger. It is not safe for
// concurrent use.
type Logger struct {
	log    *charmlog.Logger
	counts Counters
}

// New returns a Logger writing to w at info level.
func New(w io.Writer) *Logger {
	return &Logger{
		log: charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: false,
			Prefix:          Prefix,
			Level:           charmlog.InfoLevel,
		}),
	}
}

// SetVerbose toggles debug output.
func (l *Logger) SetVerbose(on bool) {
	if on {
		l.log.SetLevel(charmlog.DebugLevel)
	} else {
		l.log.SetLevel(charmlog.InfoLevel)
	}
}

// Verbose reports whether debug output is enabled.
func (l *Logger) Verbose() bool {
	return l.log.GetLevel() <= charmlog.DebugLevel
}

// Info logs and counts an informational message.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.counts.Infos++
	l.log.Info(msg, keyvals...)
}

// Warn logs and counts a warning.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.counts.Warnings++
	l.log.Warn(msg, keyvals...)
}

// Error logs and counts an error.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.counts.Errors++
	l.log.Error(msg, keyvals...)
}

// Debug logs a message when verbose. Debug messages are not counted.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log.Debug(msg, keyvals...)
}

// Counters returns a snapshot of the totals.
func (l *Logger) Counters() Counters {
	return l.counts
}

// StandardStatus logs the error, warning, and info totals as of the
// call, then returns that snapshot. The three summary lines are
// themselves counted as infos afterwards.
func (l *Logger) StandardStatus() Counters {
	c := l.counts
	l.Info(fmt.Sprintf("%d errors", c.Errors))
	l.Info(fmt.Sprintf("%d warnings", c.Warnings))
	l.Info(fmt.Sprintf("%d infos", c.Infos))
	return c
}
