// Package logger is the process-wide logging facade. Subsystems that need
// structured key-value logging (the share transport, the event bus) wrap it
// or use their own hclog instance; everything else logs through these.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// Info logs informational messages
func Info(format string, args ...interface{}) {
	log.Printf("INFO: "+format, args...)
}

// Warn logs warning messages
func Warn(format string, args ...interface{}) {
	log.Printf("WARN: "+format, args...)
}

// Error logs error messages
func Error(format string, args ...interface{}) {
	log.Printf("ERROR: "+format, args...)
}

// Debug logs debug messages
func Debug(format string, args ...interface{}) {
	log.Printf("DEBUG: "+format, args...)
}

// KV adapts the facade to consumers that log alternating key-value pairs,
// such as the event bus.
type KV struct{}

func (KV) Debug(msg string, fields ...interface{}) { log.Printf("DEBUG: %s%s", msg, kv(fields)) }
func (KV) Info(msg string, fields ...interface{})  { log.Printf("INFO: %s%s", msg, kv(fields)) }
func (KV) Warn(msg string, fields ...interface{})  { log.Printf("WARN: %s%s", msg, kv(fields)) }
func (KV) Error(msg string, fields ...interface{}) { log.Printf("ERROR: %s%s", msg, kv(fields)) }

func kv(fields []interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v", fields[len(fields)-1])
	}
	return b.String()
}
