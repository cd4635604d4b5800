// Package debug provides conditional debug logging for orrery.
//
// Debug logging is enabled by setting the ORRERY_DEBUG environment variable:
//
//	ORRERY_DEBUG=1 go test ./...
//
// When enabled, debug messages are written to stderr with timestamps and
// assertions panic on violation. When disabled (default), all debug
// functions are no-ops with zero overhead, so invariant checks cost nothing
// in release builds.
//
// Usage:
//
//	import "github.com/vanderheijden86/orrery/pkg/debug"
//
//	func relax(part scene.Part) {
//	    debug.Log("relaxing part of %d nodes", len(part))
//	    // ...
//	    debug.LogTiming("relax", elapsed)
//	}
package debug

import (
	"fmt"
	"log"
	"os"
	"time"
)

var (
	// enabled is true when ORRERY_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [ORRERY_DEBUG] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("ORRERY_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[ORRERY_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
// Note: This also requires initializing the logger if not already done.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[ORRERY_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func reflow() {
//	    defer debug.LogEnterExit("reflow")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Assert logs a message and panics if the condition is false.
// Only active when debug is enabled; release builds skip the check.
func Assert(cond bool, msg string) {
	if !enabled {
		return
	}
	if !cond {
		logger.Printf("ASSERTION FAILED: %s", msg)
		panic(fmt.Sprintf("debug assertion failed: %s", msg))
	}
}

// AssertNoError logs and panics if err is not nil.
// Only active when debug is enabled.
func AssertNoError(err error, context string) {
	if !enabled {
		return
	}
	if err != nil {
		logger.Printf("ASSERTION FAILED: %s: %v", context, err)
		panic(fmt.Sprintf("debug assertion failed: %s: %v", context, err))
	}
}
