package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the JSON lines file written inside the transcript directory.
const FileName = "episodes.jsonl"

// FileSink appends one JSON document per episode to a local file.
type FileSink struct {
	path string
	f    *os.File
}

// NewFileSink opens (creating if needed) dir/episodes.jsonl for appending.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("transcript directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open transcript file: %w", err)
	}
	return &FileSink{path: path, f: f}, nil
}

// Path returns the file episodes are appended to.
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Save(_ context.Context, ep *Episode) error {
	data, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("encode episode %s: %w", ep.ID, err)
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write episode %s: %w", ep.ID, err)
	}
	return nil
}

// Ping checks that the transcript directory still exists.
func (s *FileSink) Ping(context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *FileSink) Close() error {
	return s.f.Close()
}
