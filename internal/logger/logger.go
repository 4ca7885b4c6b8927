package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Logger is the console logger used by the CLI, the HTTP server and the export engine.
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetOutput(out io.Writer)
	SetErrorOutput(out io.Writer)
	SetVerbose(enabled bool)
	SetQuiet(enabled bool)
	IsVerbose() bool
	IsQuiet() bool
}

// ConsoleLogger writes levelled lines to stdout/stderr, coloured on a terminal.
type ConsoleLogger struct {
	output      io.Writer
	errOut      io.Writer
	verboseMode bool
	quietMode   bool
	colors      bool
	mu          sync.Mutex
}

var (
	instance Logger
	once     sync.Once
)

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	once.Do(func() {
		instance = &ConsoleLogger{
			output: os.Stdout,
			errOut: os.Stderr,
			colors: term.IsTerminal(int(os.Stdout.Fd())),
		}
	})
	return instance
}

func SetVerbose(verbose bool) { GetLogger().SetVerbose(verbose) }
func IsVerbose() bool         { return GetLogger().IsVerbose() }
func SetQuiet(quiet bool)     { GetLogger().SetQuiet(quiet) }
func IsQuiet() bool           { return GetLogger().IsQuiet() }

func Info(format string, args ...any)    { GetLogger().Info(format, args...) }
func Debug(format string, args ...any)   { GetLogger().Debug(format, args...) }
func Success(format string, args ...any) { GetLogger().Success(format, args...) }
func Warn(format string, args ...any)    { GetLogger().Warn(format, args...) }
func Error(format string, args ...any)   { GetLogger().Error(format, args...) }

// Scoped prefixes every message with a fixed tag such as "[job 1234]".
type Scoped struct {
	prefix string
}

// With returns a logger that tags each line with prefix.
func With(prefix string) Scoped {
	return Scoped{prefix: "[" + prefix + "] "}
}

func (s Scoped) Info(format string, args ...any)  { Info(s.prefix+format, args...) }
func (s Scoped) Debug(format string, args ...any) { Debug(s.prefix+format, args...) }
func (s Scoped) Warn(format string, args ...any)  { Warn(s.prefix+format, args...) }
func (s Scoped) Error(format string, args ...any) { Error(s.prefix+format, args...) }

// -------------------- Implementation --------------------

func (l *ConsoleLogger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = out
}

func (l *ConsoleLogger) SetErrorOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errOut = out
}

func (l *ConsoleLogger) SetVerbose(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verboseMode = enabled
}

func (l *ConsoleLogger) IsVerbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verboseMode
}

func (l *ConsoleLogger) SetQuiet(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quietMode = enabled
}

func (l *ConsoleLogger) IsQuiet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quietMode
}

func (l *ConsoleLogger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}

func (l *ConsoleLogger) log(toErr bool, prefix, plain, color, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.output
	if toErr {
		out = l.errOut
	}
	msg := fmt.Sprintf(format, args...)
	if l.colors {
		fmt.Fprintf(out, "%s%s %s%s\n", color, prefix, msg, resetColor)
	} else {
		fmt.Fprintf(out, "%s %s\n", plain, msg)
	}
}

const (
	blueColor   = "\033[34m"
	greenColor  = "\033[32m"
	yellowColor = "\033[33m"
	redColor    = "\033[31m"
	grayColor   = "\033[90m"
	resetColor  = "\033[0m"
)

func (l *ConsoleLogger) Info(format string, args ...any) {
	if l.IsQuiet() {
		return
	}
	l.log(false, "ℹ️", "INFO", blueColor, format, args...)
}

func (l *ConsoleLogger) Debug(format string, args ...any) {
	if !l.IsVerbose() {
		return
	}
	ts := l.timestamp()
	l.log(false, fmt.Sprintf("[%s] 🔍", ts), fmt.Sprintf("[%s] DEBUG", ts), grayColor, format, args...)
}

func (l *ConsoleLogger) Success(format string, args ...any) {
	if l.IsQuiet() {
		return
	}
	l.log(false, "✓", "SUCCESS", greenColor, format, args...)
}

func (l *ConsoleLogger) Warn(format string, args ...any) {
	if l.IsQuiet() {
		return
	}
	l.log(false, "⚠", "WARN", yellowColor, format, args...)
}

func (l *ConsoleLogger) Error(format string, args ...any) {
	l.log(true, "✗", "ERROR", redColor, format, args...)
}
