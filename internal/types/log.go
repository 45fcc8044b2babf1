package types

import (
	"maps"
	"slices"
	"strings"
	"time"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogEntry is a trace message emitted by a strategy during a run.
type LogEntry struct {
	Bar     int       `json:"bar" yaml:"bar" csv:"bar"`
	Time    time.Time `json:"time" yaml:"time" csv:"time"`
	Level   LogLevel  `json:"level" yaml:"level" csv:"level"`
	Message string    `json:"message" yaml:"message" csv:"message"`
	// Fields holds structured context. Rendered sorted by key.
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty" csv:"-"`
}

// FormatLogFields renders fields as space separated key=value pairs sorted by key.
func FormatLogFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, key+"="+fields[key])
	}

	return strings.Join(parts, " ")
}
