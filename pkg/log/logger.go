// Structured logging for the Buddy firmware Go migration
//
// Provides leveled logging with structured key-value fields and
// per-component prefixes. Output is a single text line per message so
// logs interleave cleanly with the tabular sweep reports on stderr.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message
type Level int

const (
	// DEBUG level for detailed debugging information
	DEBUG Level = iota

	// INFO level for general informational messages
	INFO

	// WARN level for warning messages
	WARN

	// ERROR level for error messages
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Fields holds structured key-value pairs attached to a message
type Fields map[string]interface{}

// Logger writes leveled, structured log messages to an io.Writer.
// A Logger is safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	component string
	fields    Fields
}

// New creates a logger writing to out at the given minimum level.
func New(out io.Writer, level Level) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{out: out, level: level}
}

// Default returns a logger writing to stderr at INFO level.
func Default() *Logger {
	return New(os.Stderr, INFO)
}

// SetLevel changes the minimum level of the logger.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Component returns a child logger whose messages carry the given
// component prefix. The child shares the parent's output and level.
func (l *Logger) Component(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		out:       l.out,
		level:     l.level,
		component: name,
		fields:    l.fields,
	}
}

// WithFields returns a child logger that attaches the given fields to
// every message.
func (l *Logger) WithFields(fields Fields) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		out:       l.out,
		level:     l.level,
		component: l.component,
		fields:    merged,
	}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, kv ...interface{}) { l.log(DEBUG, msg, kv) }

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, kv ...interface{}) { l.log(INFO, msg, kv) }

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, kv ...interface{}) { l.log(WARN, msg, kv) }

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, kv ...interface{}) { l.log(ERROR, msg, kv) }

// log formats and writes one message. kv is interpreted as alternating
// keys and values; a trailing key without a value is dropped.
func (l *Logger) log(level Level, msg string, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&sb, " [%-5s]", level)
	if l.component != "" {
		sb.WriteString(" ")
		sb.WriteString(l.component)
		sb.WriteString(":")
	}
	sb.WriteString(" ")
	sb.WriteString(msg)

	fields := make(Fields, len(l.fields)+len(kv)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, fields[k])
		}
	}
	sb.WriteString("\n")

	io.WriteString(l.out, sb.String())
}
