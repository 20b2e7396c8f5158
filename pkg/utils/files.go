package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// IOError is a file-system failure while reading a model or writing source.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadText reads a whole UTF-8 text file.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// WriteText writes text to dir/name, creating dir when needed and replacing
// any existing file. It returns the absolute path written. The write is not
// atomic: a failure part-way can leave a truncated file behind.
func WriteText(dir, name, text string) (string, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return "", &IOError{Op: "write", Path: dir, Err: fmt.Errorf("not a directory")}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Op: "write", Path: dir, Err: err}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	full, _, err := GetPathInfo(path)
	if err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	return full, nil
}
