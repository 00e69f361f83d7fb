/*
Package projector – schema compilation (validation, ref expansion, cycle checks).
*/
package projector

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Compile validates def and compiles every operation it declares.
// All problems found are reported together in a single SchemaViolation.
func Compile(def *SchemaDef) (map[string]*Schema, error) {
	if def == nil {
		return nil, argError("nil schema definition")
	}
	var errs *multierror.Error

	types := map[string]*TypeDef{}
	for _, t := range def.Types {
		switch {
		case t == nil || t.Name == "":
			errs = multierror.Append(errs, fmt.Errorf("type without a name"))
		case types[t.Name] != nil:
			errs = multierror.Append(errs, fmt.Errorf("duplicate type %q", t.Name))
		default:
			types[t.Name] = t
		}
	}
	if err := checkCycles(def, types); err != nil {
		errs = multierror.Append(errs, err)
	}
	// expanding a cyclic ref would never terminate
	if errs.ErrorOrNil() != nil {
		return nil, schemaViolation("invalid schema", WithCause(errs))
	}

	out := map[string]*Schema{}
	for _, op := range def.Operations {
		if op == nil || op.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("operation without a name"))
			continue
		}
		if out[op.Name] != nil {
			errs = multierror.Append(errs, fmt.Errorf("duplicate operation %q", op.Name))
			continue
		}
		s, err := compileOperation(op, types)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		out[op.Name] = s
	}
	if errs.ErrorOrNil() != nil {
		return nil, schemaViolation("invalid schema", WithCause(errs))
	}
	return out, nil
}

// CompileOperation compiles a single operation that uses no named types.
func CompileOperation(op *OperationDef) (*Schema, error) {
	if op == nil {
		return nil, argError("nil operation definition")
	}
	s, err := compileOperation(op, nil)
	if err != nil {
		return nil, schemaViolation("invalid schema", WithCause(err))
	}
	return s, nil
}

type compiler struct {
	op     string
	types  map[string]*TypeDef
	schema *Schema
	errs   *multierror.Error
}

func compileOperation(op *OperationDef, types map[string]*TypeDef) (*Schema, error) {
	c := &compiler{
		op:    op.Name,
		types: types,
		schema: &Schema{
			name:   op.Name,
			help:   op.Help,
			inputs: map[string]*schemaNode{},
		},
	}
	root := &schemaNode{Name: op.Name, Kind: kindBranch}
	root.Children = c.expand(op.Request, "")
	c.schema.root = root
	if err := c.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return c.schema, nil
}

func (c *compiler) fail(path, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	c.errs = multierror.Append(c.errs, fmt.Errorf("operation %q: %s", c.op, msg))
}

// expand turns a list of field definitions into schema nodes, resolving refs.
func (c *compiler) expand(fields []*FieldDef, prefix string) []*schemaNode {
	seen := map[string]bool{}
	children := make([]*schemaNode, 0, len(fields))
	for _, f := range fields {
		if f == nil {
			c.fail(prefix, "empty field definition")
			continue
		}
		if f.Name == "" || strings.ContainsAny(f.Name, ".[]") {
			c.fail(prefix, "invalid field name %q", f.Name)
			continue
		}
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if seen[f.Name] {
			c.fail(path, "duplicate field")
			continue
		}
		seen[f.Name] = true

		if n := c.node(f, path); n != nil {
			children = append(children, n)
		}
	}
	return children
}

func (c *compiler) node(f *FieldDef, path string) *schemaNode {
	n := &schemaNode{Name: f.Name, Path: path, Required: f.Required, Sensitive: f.Sensitive, Help: f.Help}

	switch {
	case f.Type != "" && (len(f.Fields) > 0 || f.Ref != ""):
		c.fail(path, "leaf of type %q cannot have children", f.Type)
		return nil
	case f.Ref != "" && len(f.Fields) > 0:
		c.fail(path, "field cannot have both ref and inline fields")
		return nil
	case f.Type != "":
		return c.leaf(n, f)
	case f.Ref != "":
		t, ok := c.types[f.Ref]
		if !ok {
			c.fail(path, "unknown type %q", f.Ref)
			return nil
		}
		n.Kind = kindBranch
		n.Children = c.expand(t.Fields, path)
	default:
		n.Kind = kindBranch
		n.Children = c.expand(f.Fields, path)
	}
	if f.Input != "" || len(f.Enum) > 0 || f.Items != "" {
		c.fail(path, "input, enum and items only apply to leaves")
	}
	if f.Sensitive {
		c.fail(path, "sensitive only applies to leaves")
	}
	return n
}

func (c *compiler) leaf(n *schemaNode, f *FieldDef) *schemaNode {
	ft, err := checkType(f.Type)
	if err != nil {
		c.fail(n.Path, "%v", err)
		return nil
	}
	n.Kind = kindLeaf
	n.Type = ft

	if ft == LeafList {
		n.Items = LeafAny
		if f.Items != "" {
			it, err := checkType(f.Items)
			if err != nil {
				c.fail(n.Path, "items: %v", err)
				return nil
			}
			n.Items = it
		}
	} else if f.Items != "" {
		c.fail(n.Path, "items only apply to list fields")
	}

	if len(f.Enum) > 0 {
		if ft != LeafString && !(ft == LeafList && n.Items == LeafString) {
			c.fail(n.Path, "enum only applies to string fields")
		}
		n.Enum = append([]string(nil), f.Enum...)
	}

	n.Input = n.Path
	if f.Input != "" {
		n.Input = f.Input
	}
	if prev, ok := c.schema.inputs[n.Input]; ok {
		c.fail(n.Path, "input name %q already used by %s", n.Input, prev.Path)
		return nil
	}
	c.schema.inputs[n.Input] = n
	c.schema.sensitive = c.schema.sensitive || n.Sensitive
	c.schema.order = append(c.schema.order, n.Input)
	return n
}

// checkType normalises and validates the LeafType.
func checkType(t LeafType) (LeafType, error) {
	norm := LeafType(strings.ToLower(string(t)))
	if !validLeafTypes[norm] {
		return "", fmt.Errorf("unknown type %q", t)
	}
	return norm, nil
}

// checkCycles rejects named types that reach themselves through refs.
// Unknown refs are reported later, during expansion.
func checkCycles(def *SchemaDef, types map[string]*TypeDef) error {
	const (
		white = iota
		grey
		black
	)
	color := map[string]int{}
	var errs *multierror.Error

	var visit func(name string, stack []string)
	var visitFields func(fields []*FieldDef, stack []string)

	visitFields = func(fields []*FieldDef, stack []string) {
		for _, f := range fields {
			if f == nil {
				continue
			}
			if f.Ref != "" {
				visit(f.Ref, stack)
			}
			visitFields(f.Fields, stack)
		}
	}
	visit = func(name string, stack []string) {
		t, ok := types[name]
		if !ok {
			return
		}
		switch color[name] {
		case black:
			return
		case grey:
			cycle := append(stack[slices.Index(stack, name):], name)
			errs = multierror.Append(errs, fmt.Errorf("type reference cycle: %s", strings.Join(cycle, " -> ")))
			return
		}
		color[name] = grey
		visitFields(t.Fields, append(stack, name))
		color[name] = black
	}

	for _, t := range def.Types {
		if t != nil && t.Name != "" {
			visit(t.Name, nil)
		}
	}
	for _, op := range def.Operations {
		if op != nil {
			visitFields(op.Request, nil)
		}
	}
	return errs.ErrorOrNil()
}
