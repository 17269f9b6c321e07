package config

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/nxadm/tail"
)

const (
	maxLogSize  = 10 * 1024 * 1024 // 10MB
	maxLogFiles = 3                // Keep 3 backup files
	logFileName = "dirty4.log"
)

var (
	logFile  *os.File
	logMutex sync.Mutex
)

// InitLogging opens the rotating application log under the config
// directory and tees the standard logger into it, so every component
// prefix ([ProxyFetcher], <rule34>, [Aggregator]...) ends up both on
// stderr and in the file the logs command reads.
func InitLogging() error {
	logMutex.Lock()
	defer logMutex.Unlock()

	configDir, err := verifyConfigDirectory()
	if err != nil {
		return err
	}
	logPath := filepath.Join(configDir, logFileName)

	// Rotate before opening when the previous run left a full file.
	if info, err := os.Stat(logPath); err == nil && info.Size() >= maxLogSize {
		if err := rotateLogs(logPath); err != nil {
			return fmt.Errorf("failed to rotate logs: %w", err)
		}
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = file
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return nil
}

// CloseLogging detaches the file from the standard logger and closes
// it.
func CloseLogging() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		log.SetOutput(os.Stderr)
		logFile.Close()
		logFile = nil
	}
}

// rotateLogs shifts numbered backups up and moves the current log to
// .1, dropping the oldest backup.
func rotateLogs(basePath string) error {
	oldestBackup := fmt.Sprintf("%s.%d", basePath, maxLogFiles)
	os.Remove(oldestBackup) // Ignore error if file doesn't exist

	for i := maxLogFiles - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", basePath, i)
		newPath := fmt.Sprintf("%s.%d", basePath, i+1)
		os.Rename(oldPath, newPath) // Ignore error if source doesn't exist
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LogFilePath returns the application log path, creating the config
// directory if needed.
func LogFilePath() (string, error) {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, logFileName), nil
}

// PrintLog copies the current log file to w.
func PrintLog(w io.Writer) error {
	logPath, err := LogFilePath()
	if err != nil {
		return err
	}

	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}

// FollowLog streams log lines to w as they are written, surviving
// rotation, until the context is cancelled.
func FollowLog(ctx context.Context, w io.Writer) error {
	logPath, err := LogFilePath()
	if err != nil {
		return err
	}

	t, err := tail.TailFile(logPath, tail.Config{
		Follow: true,
		ReOpen: true,
		Location: &tail.SeekInfo{
			Offset: 0,
			Whence: io.SeekEnd,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to follow log file: %w", err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(w, line.Text)
		}
	}
}
