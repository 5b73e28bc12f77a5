package llm

import (
	"fmt"
	"log"
	"sort"

	"github.com/sirupsen/logrus"
)

// Level classifies a log record.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Record is one structured log event emitted by the client: once before each
// dispatch and once after each receipt, plus a warning for unsupported
// attachment shapes.
type Record struct {
	Category string
	Level    Level
	Message  string
	Fields   map[string]any
}

// Logger is the caller-supplied logging sink. The client places no lock
// around it, so implementations must tolerate concurrent calls if the host
// issues completions in parallel. Logging never affects control flow.
type Logger interface {
	Log(Record)
}

// NopLogger discards all records.
type NopLogger struct{}

func (NopLogger) Log(Record) {}

// StdLogger adapts a stdlib *log.Logger.
type StdLogger struct {
	L *log.Logger
}

func (s StdLogger) Log(r Record) {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	line := fmt.Sprintf("[%s] %s: %s", r.Level, r.Category, r.Message)
	for _, k := range keys {
		line += fmt.Sprintf(" %s=%v", k, r.Fields[k])
	}
	s.L.Print(line)
}

// LogrusLogger adapts a logrus logger.
type LogrusLogger struct {
	L *logrus.Logger
}

func (l LogrusLogger) Log(r Record) {
	entry := l.L.WithField("category", r.Category).WithFields(logrus.Fields(r.Fields))
	switch r.Level {
	case LevelDebug:
		entry.Debug(r.Message)
	case LevelWarn:
		entry.Warn(r.Message)
	case LevelError:
		entry.Error(r.Message)
	default:
		entry.Info(r.Message)
	}
}

var (
	_ Logger = NopLogger{}
	_ Logger = StdLogger{}
	_ Logger = LogrusLogger{}
)
