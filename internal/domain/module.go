package domain

import (
	"errors"
	"regexp"
	"sort"
)

// ErrUnknownModule is returned when a module ID is not configured.
var ErrUnknownModule = errors.New("unknown module")

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidTableName reports whether name can be used as an unquoted SQL table name.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// Module is a named deck of cards persisted in its own table.
type Module struct {
	ID    string `json:"id"`
	Table string `json:"table"`
}

// ModuleRegistry resolves module IDs to their storage tables.
type ModuleRegistry struct {
	modules map[string]Module
}

// NewModuleRegistry builds a registry from a module ID to table name map.
func NewModuleRegistry(tables map[string]string) *ModuleRegistry {
	modules := make(map[string]Module, len(tables))
	for id, table := range tables {
		modules[id] = Module{ID: id, Table: table}
	}
	return &ModuleRegistry{modules: modules}
}

// Lookup returns the module with the given ID or ErrUnknownModule.
func (r *ModuleRegistry) Lookup(id string) (Module, error) {
	m, ok := r.modules[id]
	if !ok {
		return Module{}, ErrUnknownModule
	}
	return m, nil
}

// IDs returns all configured module IDs in sorted order.
func (r *ModuleRegistry) IDs() []string {
	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
