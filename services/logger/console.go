package logsvc

import (
	"io"
	"log"

	"github.com/trezcool/shule/core"
)

// ConsoleLogger only prints. Debug lines are dropped unless verbose.
type ConsoleLogger struct {
	std     *log.Logger
	verbose bool
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{std: std, verbose: verbose}
}

// NewDiscardLogger is a ConsoleLogger writing nowhere, for tests.
func NewDiscardLogger() *ConsoleLogger {
	return NewConsoleLogger(log.New(io.Discard, "", 0), false)
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.verbose {
		l.std.Println(formatLine("DEBUG", msg, args))
	}
}

func (l ConsoleLogger) Info(msg string, args ...interface{}) {
	l.std.Println(formatLine("INFO", msg, args))
}

func (l ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.std.Println(formatLine("WARN", msg, args))
}

func (l ConsoleLogger) Error(msg string, args ...interface{}) {
	l.std.Println(formatLine("ERROR", msg, args))
}

func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.std.Fatal(formatLine("FATAL", msg, args))
}
