package checkers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileChecker checks that a configured input file can be opened.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a readable-file check.
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (f *FileChecker) Name() string { return f.name }

func (f *FileChecker) Check(context.Context) error {
	fh, err := os.Open(f.path)
	if err != nil {
		return err
	}
	return fh.Close()
}

// DirChecker checks that files can be created in a directory, creating it if needed.
type DirChecker struct {
	name string
	dir  string
}

// NewDirChecker creates a writable-directory check.
func NewDirChecker(name, dir string) *DirChecker {
	return &DirChecker{name: name, dir: dir}
}

func (d *DirChecker) Name() string { return d.name }

func (d *DirChecker) Check(context.Context) error {
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	probe, err := os.CreateTemp(d.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}
