// Package debug is the process-wide log/slog logger used by the query
// layer, the client and the CLI. It is silent until Init(true).
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

type state struct {
	logger  *slog.Logger
	enabled bool
}

var (
	current atomic.Pointer[state]

	// mu serializes reconfiguration, readers go through current
	mu     sync.Mutex
	output io.Writer = os.Stderr
	on     bool
)

func init() {
	Init(false)
}

// Init turns debug logging on or off. Enabled logging writes text records
// at debug level to the configured output.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	on = enable
	swap()
}

// SetOutput redirects log records to w
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	swap()
}

// swap publishes a logger for the current settings. mu must be held.
func swap() {
	handler := slog.DiscardHandler
	if on {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	current.Store(&state{logger: slog.New(handler), enabled: on})
}

func Enabled() bool {
	return current.Load().enabled
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Component returns a logger tagging every record with the component name
func Component(name string) *slog.Logger {
	return Logger().With("component", name)
}

// Logger returns the active logger. The result does not follow later calls
// to Init or SetOutput.
func Logger() *slog.Logger {
	return current.Load().logger
}
