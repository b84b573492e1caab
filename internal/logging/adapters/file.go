package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"resume-render/internal/logging/types"
)

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string
	CreateDirs  bool
	FileMode    os.FileMode
	SyncOnWrite bool
}

// FileAdapter appends JSON lines to a file
type FileAdapter struct {
	name   string
	config FileConfig
	file   *os.File
	enc    *zapWriter
	mu     sync.Mutex
}

// NewFileAdapter opens (or creates) the target file for appending
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}
	if config.FileMode == 0 {
		config.FileMode = 0o644
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	f, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, config.FileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileAdapter{
		name:   name,
		config: config,
		file:   f,
		enc:    newZapWriter(f),
	}, nil
}

// Write appends a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}
	if err := a.enc.write(entry); err != nil {
		return err
	}
	if a.config.SyncOnWrite {
		return a.file.Sync()
	}
	return nil
}

// Close syncs and closes the file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	_ = a.file.Sync()
	err := a.file.Close()
	a.file = nil
	return err
}

// Health reports whether the file is still writable
func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("file adapter %s is closed", a.name)
	}
	if _, err := a.file.Stat(); err != nil {
		return fmt.Errorf("log file unavailable: %w", err)
	}
	return nil
}

func (a *FileAdapter) Name() string { return a.name }
