package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "gemini-terminal.log"

// Options configures the rotated log file
type Options struct {
	Dir        string
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu          sync.RWMutex
	debugLogger *log.Logger
	logFile     *lumberjack.Logger
	debugOn     bool
)

// InitLogger starts writing to a rotated log file in opts.Dir. The terminal
// belongs to the UI, so nothing is ever written to stdout or stderr.
func InitLogger(opts Options) error {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	logFile = &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, logFileName),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	debugOn = opts.Debug
	debugLogger = log.New(logFile, "", log.LstdFlags|log.Lmicroseconds)
	debugLogger.Printf("=== Gemini Terminal Log Started ===")

	return nil
}

// Debug logs a debug message. Dropped unless debug logging is enabled.
func Debug(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if debugLogger != nil && debugOn {
		debugLogger.Printf("[DEBUG] "+format, v...)
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if debugLogger != nil {
		debugLogger.Printf("[INFO] "+format, v...)
	}
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if debugLogger != nil {
		debugLogger.Printf("[ERROR] "+format, v...)
	}
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		debugLogger.Printf("=== Gemini Terminal Log Ended ===")
		logFile.Close()
		logFile = nil
		debugLogger = nil
	}
}
