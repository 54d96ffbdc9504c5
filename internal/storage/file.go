package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/clinterm/onco-map/internal/eval"
)

const (
	// DefaultBaseDir is the default storage directory.
	DefaultBaseDir = ".onco-map"

	// ResultsDir holds per-case result NDJSON dumps.
	ResultsDir = "results"
)

// FileResultStore implements ResultStore using the local filesystem.
type FileResultStore struct {
	// BaseDir is the root directory (e.g., .onco-map).
	BaseDir string

	mu sync.Mutex
}

// FileResultStoreOption configures a FileResultStore instance.
type FileResultStoreOption func(*FileResultStore)

// WithBaseDir sets the base directory.
func WithBaseDir(dir string) FileResultStoreOption {
	return func(s *FileResultStore) {
		s.BaseDir = dir
	}
}

// NewFileResultStore creates a new file-based result store.
func NewFileResultStore(opts ...FileResultStoreOption) *FileResultStore {
	s := &FileResultStore{BaseDir: DefaultBaseDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the required directory structure.
func (s *FileResultStore) Init() error {
	dir := filepath.Join(s.BaseDir, ResultsDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

func (s *FileResultStore) resultsPath(name string) string {
	return filepath.Join(s.BaseDir, ResultsDir, name+".ndjson")
}

// WriteResults writes every result for name to an NDJSON file, atomically:
// content lands in a temp file in the same directory and is renamed into
// place, so a concurrent reader never observes a partial dump.
func (s *FileResultStore) WriteResults(name string, results []eval.EvalResult) (string, error) {
	if name == "" {
		return "", ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.resultsPath(name)
	if err := s.atomicWrite(path, func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("write results for %s: %w", name, err)
	}

	return path, nil
}

// ReadResults reads back a previously written dump.
func (s *FileResultStore) ReadResults(name string) (results []eval.EvalResult, err error) {
	path := s.resultsPath(name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r eval.EvalResult
		if unmarshalErr := json.Unmarshal(scanner.Bytes(), &r); unmarshalErr != nil {
			return nil, fmt.Errorf("parse results %s: %w", path, unmarshalErr)
		}
		results = append(results, r)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, scanErr
	}
	if len(results) == 0 {
		return nil, ErrEmptyResultsFile
	}

	return results, nil
}

// atomicWrite writes to a temp file and renames atomically.
func (s *FileResultStore) atomicWrite(path string, writeFunc func(*bufio.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmpFile)
	if err := writeFunc(w); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("flush content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}
