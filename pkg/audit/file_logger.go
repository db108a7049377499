package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends audit entries as newline-delimited JSON, for shipping
// to external log collectors alongside the database trail.
type FileLogger struct {
	basePath string
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	rotate   bool
	maxSize  int64
}

// FileLoggerConfig configures the file logger.
type FileLoggerConfig struct {
	BasePath string // Directory for audit log files
	Rotate   bool   // Enable size-based rotation
	MaxSize  int64  // Max file size in bytes before rotation (default 100MB)
}

// NewFileLogger creates a file-based audit logger.
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	logger := &FileLogger{
		basePath: config.BasePath,
		rotate:   config.Rotate,
		maxSize:  config.MaxSize,
	}
	if logger.maxSize == 0 {
		logger.maxSize = 100 * 1024 * 1024
	}

	if err := logger.openLogFile(); err != nil {
		return nil, err
	}
	return logger, nil
}

func (l *FileLogger) openLogFile() error {
	filename := filepath.Join(l.basePath, "audit.ndjson")

	if l.rotate {
		if info, err := os.Stat(filename); err == nil && info.Size() >= l.maxSize {
			if err := l.rotateFile(); err != nil {
				return fmt.Errorf("failed to rotate audit log file: %w", err)
			}
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}

	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

func (l *FileLogger) rotateFile() error {
	current := filepath.Join(l.basePath, "audit.ndjson")

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	rotated := filepath.Join(l.basePath, fmt.Sprintf("audit-%s.ndjson", time.Now().Format("2006-01-02-15-04-05")))
	if err := os.Rename(current, rotated); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Log appends one entry as a JSON line.
func (l *FileLogger) Log(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if l.rotate {
		if info, err := l.file.Stat(); err == nil && info.Size() >= l.maxSize {
			if err := l.rotateFile(); err != nil {
				return err
			}
			if err := l.openLogFile(); err != nil {
				return err
			}
		}
	}

	if err := l.encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Close closes the current log file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
