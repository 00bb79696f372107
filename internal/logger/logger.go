package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Environment variables to configure log file path and verbosity.
const (
	envLogPath = "DASHBOARD_LOG"
	envLogDbg  = "DASHBOARD_LOG_DEBUG"
)

var (
	std           *log.Logger
	logFile       *os.File
	debugEnabled  bool
	isInitialized bool
)

// InitFromEnv initializes the logger using DASHBOARD_LOG or a default path.
// Stdout belongs to the MCP transport, so logs always go to a file.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		// Default to the directory where the executable is located
		if exePath, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exePath)
			path = filepath.Join(exeDir, "dashboard.log")
		} else {
			// Fallback to current directory if executable path cannot be determined
			path = "./dashboard.log"
		}
	}
	debugEnabled = os.Getenv(envLogDbg) != ""
	return Init(path)
}

// Init initializes the logger to write to the provided file path.
// It creates parent directories if needed and opens the file in append mode.
func Init(path string) error {
	if isInitialized {
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	isInitialized = true
	return nil
}

// Close closes the underlying log file, if open.
func Close() error {
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Debugf logs verbose diagnostics; dropped unless DASHBOARD_LOG_DEBUG is set.
func Debugf(format string, args ...any) {
	if debugEnabled {
		write("DEBUG", format, args...)
	}
}

// Infof logs informational messages.
func Infof(format string, args ...any) { write("INFO", format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write("WARN", format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write("ERROR", format, args...) }

func write(level string, format string, args ...any) {
	if std == nil {
		// Fallback: initialize with default if not already.
		_ = InitFromEnv()
	}
	if std != nil {
		std.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
