package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileSink appends events as newline-delimited JSON to an audit log file
// with size-based rotation.
type FileSink struct {
	basePath string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// FileSinkConfig configures the file sink
type FileSinkConfig struct {
	BasePath string // Directory for audit logs
	MaxSize  int64  // Max file size in bytes before rotation (default 100MB)
	MaxFiles int    // Rotated files to keep (default 10)
}

// DefaultFileSinkConfig returns default configuration
func DefaultFileSinkConfig() FileSinkConfig {
	return FileSinkConfig{
		BasePath: "/var/log/bulletin/audit",
		MaxSize:  100 * 1024 * 1024,
		MaxFiles: 10,
	}
}

// NewFileSink creates a file-backed audit sink
func NewFileSink(config FileSinkConfig) (*FileSink, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	s := &FileSink{
		basePath: config.BasePath,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
	}
	if s.maxSize == 0 {
		s.maxSize = 100 * 1024 * 1024
	}
	if s.maxFiles == 0 {
		s.maxFiles = 10
	}

	if err := s.openLogFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSink) currentPath() string {
	return filepath.Join(s.basePath, "audit.log")
}

func (s *FileSink) openLogFile() error {
	filename := s.currentPath()

	if info, err := os.Stat(filename); err == nil && info.Size() >= s.maxSize {
		if err := s.rotateFile(); err != nil {
			return fmt.Errorf("failed to rotate audit log: %w", err)
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}

	s.file = file
	s.encoder = json.NewEncoder(file)
	return nil
}

func (s *FileSink) rotateFile() error {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	timestamp := time.Now().Format("2006-01-02-15-04-05")
	rotated := filepath.Join(s.basePath, fmt.Sprintf("audit-%s.log", timestamp))
	if err := os.Rename(s.currentPath(), rotated); err != nil {
		return fmt.Errorf("failed to rename audit log: %w", err)
	}

	if err := s.cleanupOldFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to cleanup old audit logs: %v\n", err)
	}
	return nil
}

func (s *FileSink) cleanupOldFiles() error {
	files, err := filepath.Glob(filepath.Join(s.basePath, "audit-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= s.maxFiles {
		return nil
	}

	// Rotation timestamps sort lexically, oldest first.
	sort.Strings(files)
	for _, file := range files[:len(files)-s.maxFiles] {
		if err := os.Remove(file); err != nil {
			return err
		}
	}
	return nil
}

// Record implements Sink
func (s *FileSink) Record(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("audit file sink is closed")
	}

	if info, err := s.file.Stat(); err == nil && info.Size() >= s.maxSize {
		if err := s.rotateFile(); err != nil {
			return err
		}
		if err := s.openLogFile(); err != nil {
			return err
		}
	}

	return s.encoder.Encode(event)
}

// Close implements Sink
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.encoder = nil
	return err
}
