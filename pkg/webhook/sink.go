package webhook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives debug records of accepted payloads.
type Sink interface {
	Append(line string) error
}

// FileSink appends debug records to a plain text file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create debug log dir: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	if _, err := file.WriteString(line); err != nil {
		file.Close()
		return fmt.Errorf("write debug log: %w", err)
	}
	return file.Close()
}

// Clear removes the debug log. A missing file is not an error.
func (s *FileSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear debug log: %w", err)
	}
	return nil
}
