package utils

import (
	"log"
	"os"
)

// Logger writes leveled messages with trailing key/value context to stdout.
type Logger struct {
	l *log.Logger
}

func NewLogger() *Logger {
	return &Logger{l: log.New(os.Stdout, "", log.LstdFlags|log.Lshortfile)}
}

// The kv arguments are alternating keys and values appended verbatim.
func (lg *Logger) Info(msg string, kv ...any)  { lg.print("INFO:", msg, kv) }
func (lg *Logger) Warn(msg string, kv ...any)  { lg.print("WARN:", msg, kv) }
func (lg *Logger) Error(msg string, kv ...any) { lg.print("ERROR:", msg, kv) }

func (lg *Logger) print(level, msg string, kv []any) {
	lg.l.Println(append([]any{level, msg}, kv...)...)
}
