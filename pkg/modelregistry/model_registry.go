package modelregistry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Model describes a bread table: its key, relations and computed accessors
type Model struct {
	Name       string
	Table      string
	PrimaryKey string
	Relations  map[string]common.Relation
	Accessors  map[string]record.Accessor
}

// Key returns the primary key column, "id" when unset
func (m *Model) Key() string {
	if m.PrimaryKey == "" {
		return "id"
	}
	return m.PrimaryKey
}

// Relation looks up a relation by name
func (m *Model) Relation(name string) (common.Relation, bool) {
	if m == nil || m.Relations == nil {
		return common.Relation{}, false
	}
	rel, ok := m.Relations[name]
	return rel, ok
}

// NewRecord creates an empty record for the model's table
func (m *Model) NewRecord(src record.AccessorSource) *record.Record {
	return record.New(m.Table, m.Key()).WithAccessors(src)
}

// DefaultModelRegistry keeps models by name and by table
type DefaultModelRegistry struct {
	models  map[string]*Model
	byTable map[string]string
	mutex   sync.RWMutex
}

// Global default registry instance
var defaultRegistry = NewModelRegistry()
var registryMutex sync.RWMutex

// NewModelRegistry creates a new model registry
func NewModelRegistry() *DefaultModelRegistry {
	return &DefaultModelRegistry{
		models:  make(map[string]*Model),
		byTable: make(map[string]string),
	}
}

func GetDefaultRegistry() *DefaultModelRegistry {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	return defaultRegistry
}

func SetDefaultRegistry(registry *DefaultModelRegistry) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	defaultRegistry = registry
}

// RegisterModel adds a model. Relations are validated and keyed by their name.
func (r *DefaultModelRegistry) RegisterModel(model *Model) error {
	if model == nil {
		return fmt.Errorf("model cannot be nil")
	}
	if model.Name == "" || model.Table == "" {
		return fmt.Errorf("model requires a name and a table")
	}
	for key, rel := range model.Relations {
		if rel.Name == "" {
			rel.Name = key
			model.Relations[key] = rel
		}
		if err := rel.Validate(); err != nil {
			return fmt.Errorf("model %s: %w", model.Name, err)
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.models[model.Name]; exists {
		return fmt.Errorf("model %s already registered", model.Name)
	}
	if owner, exists := r.byTable[model.Table]; exists {
		return fmt.Errorf("table %s already registered by model %s", model.Table, owner)
	}

	r.models[model.Name] = model
	r.byTable[model.Table] = model.Name
	return nil
}

func (r *DefaultModelRegistry) GetModel(name string) (*Model, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	model, exists := r.models[name]
	if !exists {
		return nil, fmt.Errorf("model %s not found", name)
	}
	return model, nil
}

func (r *DefaultModelRegistry) GetModelByTable(table string) (*Model, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	name, exists := r.byTable[table]
	if !exists {
		return nil, fmt.Errorf("no model registered for table %s", table)
	}
	return r.models[name], nil
}

// GetAllModels returns the registered models sorted by name
func (r *DefaultModelRegistry) GetAllModels() []*Model {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Accessor implements record.AccessorSource
func (r *DefaultModelRegistry) Accessor(table, name string) (record.Accessor, bool) {
	model, err := r.GetModelByTable(table)
	if err != nil || model.Accessors == nil {
		return nil, false
	}
	fn, ok := model.Accessors[name]
	return fn, ok
}

// Global convenience functions using the default registry

// RegisterModel registers a model with the default global registry
func RegisterModel(model *Model) error {
	return GetDefaultRegistry().RegisterModel(model)
}

func GetModel(name string) (*Model, error) {
	return GetDefaultRegistry().GetModel(name)
}

func GetModelByTable(table string) (*Model, error) {
	return GetDefaultRegistry().GetModelByTable(table)
}

func GetAllModels() []*Model {
	return GetDefaultRegistry().GetAllModels()
}
