package runs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

// Archive persists finished runs outside the process
type Archive interface {
	// Save writes a run to storage
	Save(report *service.RunReport) error

	// Load reads a run by ID
	Load(id string) (*service.RunReport, error)

	// Delete removes a run from storage
	Delete(id string) error

	// ListAll returns every archived run ID
	ListAll() ([]string, error)

	// Exists reports whether a run is archived
	Exists(id string) bool
}

// FileArchive stores each run as an indented JSON file named <id>.json
type FileArchive struct {
	dir string
}

// NewFileArchive creates the archive directory if needed
func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

// Save persists a run to a JSON file
func (fa *FileArchive) Save(report *service.RunReport) error {
	if report == nil || report.ID == "" {
		return ErrInvalidRun
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	path, err := fa.filePath(report.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}
	return nil
}

// Load reads a run from its JSON file
func (fa *FileArchive) Load(id string) (*service.RunReport, error) {
	path, err := fa.filePath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var report service.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &report, nil
}

// Delete removes a run file
func (fa *FileArchive) Delete(id string) error {
	if !fa.Exists(id) {
		return ErrRunNotFound
	}
	path, err := fa.filePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove run file: %w", err)
	}
	return nil
}

// ListAll returns the IDs of all archived runs
func (fa *FileArchive) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fa.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return ids, nil
}

// Exists checks whether a run file is present
func (fa *FileArchive) Exists(id string) bool {
	path, err := fa.filePath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// filePath maps an ID to its file; IDs are lowercased to match Store lookups
func (fa *FileArchive) filePath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: bad run id %q", ErrInvalidRun, id)
	}
	return filepath.Join(fa.dir, strings.ToLower(id)+".json"), nil
}
