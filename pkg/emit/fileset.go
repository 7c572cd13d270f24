// Package emit buffers generated files in memory and writes them in one pass, so a
// failing backend never leaves a partially generated tree behind.
package emit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is one generated file
type File struct {
	Path string
	Data []byte
}

// FileSet is an ordered set of generated files keyed by path
type FileSet struct {
	files []File
	index map[string]int
}

// NewFileSet creates an empty file set
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]int)}
}

// Add records a file. Adding the same path twice is an error.
func (fs *FileSet) Add(path string, data []byte) error {
	path = filepath.Clean(path)
	if _, ok := fs.index[path]; ok {
		return fmt.Errorf("file %s generated twice", path)
	}
	fs.index[path] = len(fs.files)
	fs.files = append(fs.files, File{Path: path, Data: data})
	return nil
}

// Merge moves every file of other into fs
func (fs *FileSet) Merge(other *FileSet) error {
	for _, f := range other.files {
		if err := fs.Add(f.Path, f.Data); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the contents recorded for path
func (fs *FileSet) Get(path string) ([]byte, bool) {
	i, ok := fs.index[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return fs.files[i].Data, true
}

// Files returns the recorded files in insertion order
func (fs *FileSet) Files() []File {
	return fs.files
}

// Len is the number of recorded files
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// WriteOptions controls Commit
type WriteOptions struct {
	// Check reports files that would change instead of writing them
	Check bool
}

// Result summarizes a Commit
type Result struct {
	Written   []string
	Unchanged []string
}

// ErrCheckFailed is returned by Commit in check mode when any file differs
var ErrCheckFailed = errors.New("generated files are out of date")

// Commit writes every file whose contents differ from what is on disk. In check mode
// nothing is written and ErrCheckFailed lists every stale file.
func (fs *FileSet) Commit(opt WriteOptions) (Result, error) {
	var res Result
	var stale []string
	for _, f := range fs.files {
		wrote, err := writeFile(f.Path, f.Data, opt)
		switch {
		case errors.Is(err, errStale):
			stale = append(stale, f.Path)
		case err != nil:
			return res, err
		case wrote:
			res.Written = append(res.Written, f.Path)
		default:
			res.Unchanged = append(res.Unchanged, f.Path)
		}
	}
	if len(stale) > 0 {
		sort.Strings(stale)
		return res, fmt.Errorf("%w: %s", ErrCheckFailed, strings.Join(stale, ", "))
	}
	return res, nil
}

var errStale = errors.New("stale")

func writeFile(path string, data []byte, opt WriteOptions) (bool, error) {
	existing, readErr := os.ReadFile(path)
	if readErr == nil {
		if bytes.Equal(existing, data) {
			return false, nil
		}
	} else if !os.IsNotExist(readErr) {
		return false, fmt.Errorf("read existing %s: %w", path, readErr)
	}

	if opt.Check {
		return false, errStale
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("rename tmp: %w", err)
	}
	return true, nil
}
