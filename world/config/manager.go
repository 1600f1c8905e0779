package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/vacuumworld/world/model"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

var (
	ErrInstanceNotFound = fmt.Errorf("instance %w", service.ErrNotFound)
	ErrInvalidInstance  = errors.New("invalid instance")
)

// DefaultInstanceName is loaded as the default when present
const DefaultInstanceName = "instance1"

// Extensions recognised as instance files, in lookup order
var Extensions = []string{".json", ".yaml", ".yml"}

// Manager handles instance loading and caching
type Manager struct {
	dir             string
	defaultInstance *model.Instance
	instances       map[string]*model.Instance
	mu              sync.RWMutex
}

// NewManager creates a new instance manager
func NewManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", dir)
	}

	m := &Manager{
		dir:       dir,
		instances: make(map[string]*model.Instance),
	}

	if err := m.loadDefault(); err != nil {
		return nil, fmt.Errorf("failed to load default instance: %w", err)
	}

	return m, nil
}

// Dir returns the directory the manager reads from
func (m *Manager) Dir() string {
	return m.dir
}

// LoadInstance loads an instance by name, with or without extension
func (m *Manager) LoadInstance(name string) (*model.Instance, error) {
	id := instanceID(name)

	m.mu.RLock()
	if inst, exists := m.instances[id]; exists {
		m.mu.RUnlock()
		return inst, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if inst, exists := m.instances[id]; exists {
		return inst, nil
	}

	path, err := m.findFile(name)
	if err != nil {
		return nil, err
	}

	inst, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	if inst.Name == "" {
		inst.Name = id
	}

	m.instances[id] = inst
	return inst, nil
}

// ListInstances returns information about every valid instance file
func (m *Manager) ListInstances() ([]*service.InstanceInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var infos []*service.InstanceInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !hasInstanceExt(entry.Name()) {
			continue
		}

		id := instanceID(entry.Name())
		if seen[id] {
			continue
		}

		inst, err := m.LoadInstance(id)
		if err != nil {
			// Skip invalid instances
			continue
		}
		seen[id] = true

		infos = append(infos, &service.InstanceInfo{
			Filename:    entry.Name(),
			InstanceID:  id,
			Name:        inst.Name,
			Description: inst.Description,
			Rows:        inst.Rows,
			Columns:     inst.Columns,
			DirtyCells:  len(inst.Dirty),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].InstanceID < infos[j].InstanceID })
	return infos, nil
}

// GetDefault returns the default instance
func (m *Manager) GetDefault() *model.Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultInstance
}

// SetDefault sets the default instance by name
func (m *Manager) SetDefault(name string) error {
	inst, err := m.LoadInstance(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultInstance = inst
	return nil
}

// RefreshCache drops cached instances and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.instances = make(map[string]*model.Instance)
	m.mu.Unlock()

	return m.loadDefault()
}

// SaveInstance validates and writes an instance as <name>.json
func (m *Manager) SaveInstance(name string, inst *model.Instance) error {
	if err := inst.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}

	id := instanceID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: bad instance name %q", ErrInvalidInstance, name)
	}

	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	path := filepath.Join(m.dir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write instance file: %w", err)
	}

	m.mu.Lock()
	m.instances[id] = inst
	m.mu.Unlock()

	return nil
}

// DecodeFile reads and validates an instance file, choosing the decoder by extension
func DecodeFile(path string) (*model.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to read instance file: %w", err)
	}

	inst, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Decode parses and validates instance data; ext selects JSON or YAML
func Decode(data []byte, ext string) (*model.Instance, error) {
	var inst model.Instance

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("failed to parse instance: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("failed to parse instance: %w", err)
		}
	}

	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}
	return &inst, nil
}

// findFile locates the file for an instance name
func (m *Manager) findFile(name string) (string, error) {
	if hasInstanceExt(name) {
		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); err != nil {
			return "", ErrInstanceNotFound
		}
		return path, nil
	}

	for _, ext := range Extensions {
		path := filepath.Join(m.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrInstanceNotFound
}

// loadDefault loads instance1, then the first valid instance, then a built-in one
func (m *Manager) loadDefault() error {
	inst, err := m.LoadInstance(DefaultInstanceName)
	if err != nil {
		infos, listErr := m.ListInstances()
		if listErr != nil || len(infos) == 0 {
			m.setDefault(BuiltinInstance())
			return nil
		}

		inst, err = m.LoadInstance(infos[0].InstanceID)
		if err != nil {
			m.setDefault(BuiltinInstance())
			return nil
		}
	}

	m.setDefault(inst)
	return nil
}

func (m *Manager) setDefault(inst *model.Instance) {
	m.mu.Lock()
	m.defaultInstance = inst
	m.mu.Unlock()
}

// BuiltinInstance is the classic first instance, used when no files are present
func BuiltinInstance() *model.Instance {
	return &model.Instance{
		Name:        DefaultInstanceName,
		Description: "Classic 4x5 world, agent at (2,2), three dirty cells",
		Rows:        4,
		Columns:     5,
		Actions:     append([]model.Action(nil), model.CanonicalActions...),
		ActionCosts: model.DefaultActionCosts(),
		Initial:     model.Position{Row: 2, Col: 2},
		Dirty: []model.Position{
			{Row: 1, Col: 2},
			{Row: 2, Col: 4},
			{Row: 3, Col: 5},
		},
	}
}

func instanceID(name string) string {
	for _, ext := range Extensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func hasInstanceExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
