// Package store persists questionnaire responses as flat JSON files, one
// document per response, the only persistence layer the generator has.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cohortsynth/domain/core"
	"cohortsynth/domain/survey"
)

const (
	filePrefix = "response-"
	fileSuffix = ".json"
)

// FileStore reads and writes response documents under a single directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created
// lazily on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir reports the backing directory.
func (s *FileStore) Dir() string { return s.dir }

// Save writes one response document as indented JSON.
func (s *FileStore) Save(r *survey.Response) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response %s: %w", r.ID, err)
	}
	path := filepath.Join(s.dir, s.fileName(r))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write response %s: %w", r.ID, err)
	}
	return nil
}

// SaveAll writes every response, overwriting existing documents.
func (s *FileStore) SaveAll(rs []*survey.Response) error {
	for _, r := range rs {
		if err := s.Save(r); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reads every response document in name-sorted order. A missing
// directory or an empty cohort is a not-found error, raised before any
// processing happens downstream.
func (s *FileStore) LoadAll() ([]*survey.Response, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, core.NewNotFoundError("cohort directory", s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read cohort directory %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, core.ErrEmptyCohort
	}
	sort.Strings(names)

	responses := make([]*survey.Response, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read response %s: %w", name, err)
		}
		var r survey.Response
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode response %s: %w", name, err)
		}
		responses = append(responses, &r)
	}
	return responses, nil
}

// Clean removes every generated JSON document from the directory. A
// missing directory is a no-op.
func (s *FileStore) Clean() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cohort directory %s: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// fileName derives the on-disk name from the document ID, which already
// carries the "response-" prefix.
func (s *FileStore) fileName(r *survey.Response) string {
	name := r.ID
	if !strings.HasPrefix(name, filePrefix) {
		name = filePrefix + name
	}
	return name + fileSuffix
}
