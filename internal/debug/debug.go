// Package debug gives the rest of the module one place to emit diagnostic
// logging that can be silenced when the process is driven over stdio (an
// MCP server must never write stray bytes to stdout) or redirected to a
// file for troubleshooting.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu        sync.Mutex
	output    io.Writer = os.Stderr
	stdioMode bool
	logFile   *os.File
)

// SetStdioMode suppresses all debug output. Call this before starting the
// MCP server, which communicates with its client over stdin/stdout.
func SetStdioMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	stdioMode = enabled
}

// SetOutput redirects debug output. Passing nil disables it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// ToFile opens a timestamped log file under dir and directs debug output
// there. The caller is responsible for calling Close when done.
func ToFile(dir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create debug log dir: %w", err)
	}
	name := fmt.Sprintf("codeindex-%s.log", time.Now().Format("2006-01-02T150405"))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open debug log file: %w", err)
	}
	logFile = f
	output = f
	return path, nil
}

// Close releases the log file opened by ToFile, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Logf writes one diagnostic line, suppressed entirely in stdio mode.
func Logf(format string, args ...interface{}) {
	mu.Lock()
	w, suppressed := output, stdioMode
	mu.Unlock()

	if suppressed || w == nil {
		return
	}
	log.New(w, "", log.LstdFlags).Printf(format, args...)
}
