/*
Package projector – schema registry.

Holds compiled operations by name. Schemas are compiled when registered,
so malformed schemas (including reference cycles) are rejected before any
request is projected.
*/
package projector

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

const schemaVersion = "1"

// Registry is a set of compiled operations. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*Schema
}

// NewRegistry compiles and registers every definition in defs.
func NewRegistry(defs ...*SchemaDef) (*Registry, error) {
	r := &Registry{ops: map[string]*Schema{}}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile reads a YAML or JSON schema file into a new Registry.
func LoadFile(path string) (*Registry, error) {
	def, err := ReadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(def)
}

// ReadSchemaFile reads and parses a schema file without compiling it.
func ReadSchemaFile(path string) (*SchemaDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return ParseSchema(data)
}

// ParseSchema parses YAML (or JSON, which YAML accepts) schema data.
// Unknown keys are rejected, so a misspelt attribute cannot be ignored.
func ParseSchema(data []byte) (*SchemaDef, error) {
	var def SchemaDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, schemaViolation("failed to parse schema", WithCause(err))
	}
	return &def, nil
}

// Register compiles def and adds its operations. Either all operations of
// def are added or none are.
func (r *Registry) Register(def *SchemaDef) error {
	if def == nil {
		return argError("nil schema definition")
	}
	if def.Version == "" {
		return schemaViolation("schema is missing a version")
	}
	if def.Version != schemaVersion {
		return schemaViolation(fmt.Sprintf("unsupported schema version %q", def.Version))
	}
	ops, err := Compile(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range ops {
		if _, ok := r.ops[name]; ok {
			return schemaViolation(fmt.Sprintf("operation %q is already registered", name))
		}
	}
	for name, s := range ops {
		r.ops[name] = s
	}
	return nil
}

// RegisterSchema adds an already compiled schema under its own name.
func (r *Registry) RegisterSchema(s *Schema) error {
	if s == nil {
		return argError("nil schema")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ops[s.name]; ok {
		return schemaViolation(fmt.Sprintf("operation %q is already registered", s.name))
	}
	r.ops[s.name] = s
	return nil
}

// Operation returns the compiled schema for name.
func (r *Registry) Operation(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.ops[name]
	if !ok {
		return nil, NewError(fmt.Sprintf("unknown operation %q", name), WithCode(ErrArgument),
			WithContext(map[string]any{"operation": name}))
	}
	return s, nil
}

// Operations lists the registered operation names, sorted.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
