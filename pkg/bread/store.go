package bread

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

	"github.com/bitechdev/BreadSpec/pkg/logger"
	"github.com/bitechdev/BreadSpec/pkg/modelregistry"
)

// ErrBreadNotFound is returned when no bread matches a slug or table
var ErrBreadNotFound = errors.New("bread not found")

// Store keeps breads by slug and by table
type Store struct {
	models  *modelregistry.DefaultModelRegistry
	bySlug  map[string]*Bread
	byTable map[string]*Bread
	mu      sync.RWMutex
}

// NewStore creates a store resolving models through models.
// A nil registry uses the process default.
func NewStore(models *modelregistry.DefaultModelRegistry) *Store {
	if models == nil {
		models = modelregistry.GetDefaultRegistry()
	}
	return &Store{
		models:  models,
		bySlug:  make(map[string]*Bread),
		byTable: make(map[string]*Bread),
	}
}

// Models returns the registry the store resolves models from
func (s *Store) Models() *modelregistry.DefaultModelRegistry {
	return s.models
}

// Add validates b, resolves its model and stores it.
// A bread without a registered model gets one built from its own table,
// primary key and relationships.
func (s *Store) Add(b *Bread) error {
	if err := b.Validate(); err != nil {
		return err
	}

	model, err := s.resolveModel(b)
	if err != nil {
		return err
	}
	b.SetModel(model)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySlug[b.Slug]; exists {
		return fmt.Errorf("bread %s already loaded", b.Slug)
	}
	s.bySlug[b.Slug] = b
	s.byTable[b.Table] = b
	return nil
}

func (s *Store) resolveModel(b *Bread) (*modelregistry.Model, error) {
	if b.ModelName != "" {
		if m, err := s.models.GetModel(b.ModelName); err == nil {
			if len(b.Relations) > 0 {
				logger.Warn("Bread %s: relationships ignored, model %s is registered", b.Slug, b.ModelName)
			}
			return m, nil
		}
	} else if m, err := s.models.GetModelByTable(b.Table); err == nil {
		return m, nil
	}

	name := b.ModelName
	if name == "" {
		name = b.Slug
	}
	m := &modelregistry.Model{
		Name:       name,
		Table:      b.Table,
		PrimaryKey: b.PrimaryKey,
		Relations:  b.Relations,
	}
	if err := s.models.RegisterModel(m); err != nil {
		return nil, fmt.Errorf("bread %s: %w", b.Slug, err)
	}
	logger.Debug("Bread %s: registered model %s for table %s", b.Slug, name, b.Table)
	return m, nil
}

// LoadDir reads every *.json, *.yaml and *.yml file in dir, in name order
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read bread directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := s.LoadFile(filepath.Join(dir, name)); err != nil {
			return err
		}
		loaded++
	}
	logger.Info("Loaded %d breads from %s", loaded, dir)
	return nil
}

// LoadFile reads one bread definition
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read bread file: %w", err)
	}
	b, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Add(b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Parse decodes a bread from JSON or, for ".yaml"/".yml", YAML
func Parse(data []byte, ext string) (*Bread, error) {
	var b Bread
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("invalid bread yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("invalid bread json: %w", err)
		}
	}
	return &b, nil
}

func (s *Store) GetBreadBySlug(slug string) (*Bread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.bySlug[slug]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: slug %s", ErrBreadNotFound, slug)
}

func (s *Store) GetBreadByTable(table string) (*Bread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.byTable[table]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: table %s", ErrBreadNotFound, table)
}

// All returns the breads sorted by slug
func (s *Store) All() []*Bread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Bread, 0, len(s.bySlug))
	for _, b := range s.bySlug {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
