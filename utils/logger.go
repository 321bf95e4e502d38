package utils

import (
	"fmt"
	"log"
	"os"
	"sync"
)

type LogLevel int

const (
	LogLevelError = LogLevel(1 << iota)
	LogLevelInfo
	LogLevelNotice
	LogLevelDebug
)

var GlobalLogLevel = LogLevelError | LogLevelInfo

func Errorf(format string, v ...any) {
	if GlobalLogLevel&LogLevelError == 0 {
		return
	}
	log.Printf(format, v...)
}

func Logf(format string, v ...any) {
	if GlobalLogLevel&LogLevelInfo == 0 {
		return
	}
	log.Printf(format, v...)
}

func Noticef(format string, v ...any) {
	if GlobalLogLevel&LogLevelNotice == 0 {
		return
	}
	log.Printf(format, v...)
}

func Debugf(format string, v ...any) {
	if GlobalLogLevel&LogLevelDebug == 0 {
		return
	}
	log.Printf(format, v...)
}

// Panic logs err unconditionally and aborts the process. Reserved for
// invariants a caller has already decided are unrecoverable.
func Panic(err error) {
	log.Panic(err)
}

var (
	logFileLock sync.Mutex
	logFilePath string
	logFile     *os.File
)

// SetLogFile redirects log output to path, opened for append, closing any
// previously configured file. An empty path restores stderr output.
func SetLogFile(path string) error {
	logFileLock.Lock()
	defer logFileLock.Unlock()

	if path == "" {
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
		logFilePath = ""
		log.SetOutput(os.Stderr)
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	old := logFile
	logFile = f
	logFilePath = path
	log.SetOutput(f)
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// ReopenLogFile closes and reopens the configured log file at the same
// path, picking up a rename performed by external log rotation. A no-op if
// no log file was configured via SetLogFile.
func ReopenLogFile() error {
	logFileLock.Lock()
	path := logFilePath
	logFileLock.Unlock()
	if path == "" {
		return nil
	}
	return SetLogFile(path)
}
