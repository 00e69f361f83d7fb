/*
Package projector – schema types.

A schema file declares operations, each with a request tree of nodes and
leaf fields. Named types may be shared between operations via "ref".
*/
package projector

import "slices"

// LeafType names the shape of a leaf value.
type LeafType string

const (
	LeafString    LeafType = "string"
	LeafBoolean   LeafType = "boolean"
	LeafInteger   LeafType = "integer"
	LeafNumber    LeafType = "number"
	LeafTimestamp LeafType = "timestamp"
	LeafList      LeafType = "list"
	LeafMap       LeafType = "map"
	LeafAny       LeafType = "any"
)

var validLeafTypes = map[LeafType]bool{
	LeafString: true, LeafBoolean: true, LeafInteger: true, LeafNumber: true,
	LeafTimestamp: true, LeafList: true, LeafMap: true, LeafAny: true,
}

// FieldDef is one child of a node: either a leaf (Type set), an inline node
// (Fields set) or a reference to a named type (Ref set).
type FieldDef struct {
	Name      string      `json:"name" yaml:"name"`
	Type      LeafType    `json:"type,omitempty" yaml:"type,omitempty"`
	Items     LeafType    `json:"items,omitempty" yaml:"items,omitempty"` // element type for lists
	Enum      []string    `json:"enum,omitempty" yaml:"enum,omitempty"`
	Input     string      `json:"input,omitempty" yaml:"input,omitempty"` // flat input name override
	Required  bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Sensitive bool        `json:"sensitive,omitempty" yaml:"sensitive,omitempty"` // masked in logs
	Help      string      `json:"help,omitempty" yaml:"help,omitempty"`
	Ref       string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	Fields    []*FieldDef `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// TypeDef is a named, reusable node shape.
type TypeDef struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []*FieldDef `json:"fields" yaml:"fields"`
}

// OperationDef is one remote operation and the shape of its request.
type OperationDef struct {
	Name    string      `json:"name" yaml:"name"`
	Help    string      `json:"help,omitempty" yaml:"help,omitempty"`
	Request []*FieldDef `json:"request" yaml:"request"`
}

// SchemaDef is the top-level document loaded from a schema file.
type SchemaDef struct {
	Version    string          `json:"version" yaml:"version"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty"`
	Types      []*TypeDef      `json:"types,omitempty" yaml:"types,omitempty"`
	Operations []*OperationDef `json:"operations" yaml:"operations"`
}

// compiled schema (internal, built from the definitions by Compile)

// nodeKind tells leaves from branches.
type nodeKind int

const (
	kindBranch nodeKind = iota
	kindLeaf
)

// schemaNode is the runtime representation of one field of the tree.
// Built once during compilation, read-only afterwards.
type schemaNode struct {
	Name      string
	Path      string // dotted path from the root, e.g. "Credentials.Username"
	Kind      nodeKind
	Type      LeafType
	Items     LeafType
	Enum      []string // allowed values, declaration order
	Input     string
	Required  bool
	Sensitive bool
	Help      string
	Children  []*schemaNode // declaration order
}

// Schema is a compiled, immutable request shape for one operation.
// It is safe for concurrent use by any number of Project calls.
type Schema struct {
	name   string
	help   string
	root   *schemaNode
	inputs map[string]*schemaNode // input name → leaf
	order  []string               // input names in declaration order

	sensitive bool // any leaf is sensitive
}

// Name returns the operation name the schema was compiled for.
func (s *Schema) Name() string { return s.name }

// Help returns the operation's description, if any.
func (s *Schema) Help() string { return s.help }

// Leaf describes one input accepted by a schema.
type Leaf struct {
	Input     string
	Path      string
	Type      LeafType
	Items     LeafType
	Enum      []string
	Required  bool
	Sensitive bool
	Help      string
}

// Leaves lists every leaf of the schema in declaration order.
func (s *Schema) Leaves() []Leaf {
	out := make([]Leaf, 0, len(s.order))
	for _, name := range s.order {
		n := s.inputs[name]
		l := Leaf{
			Input: n.Input, Path: n.Path, Type: n.Type, Items: n.Items,
			Enum: slices.Clone(n.Enum), Required: n.Required, Sensitive: n.Sensitive, Help: n.Help,
		}
		out = append(out, l)
	}
	return out
}

const redacted = "<redacted>"

// Redact returns tree with the values of sensitive leaves masked, for
// logging. tree is not modified; values that are not maps pass through.
func (s *Schema) Redact(tree any) any {
	if !s.sensitive {
		return tree
	}
	return redactNode(s.root, tree)
}

func redactNode(n *schemaNode, v any) any {
	var m map[string]any
	switch tv := v.(type) {
	case Node:
		m = tv
	case map[string]any:
		m = tv
	default:
		return v
	}
	out := make(Node, len(m))
	for k, e := range m {
		out[k] = e
	}
	for _, c := range n.Children {
		e, ok := out[c.Name]
		if !ok {
			continue
		}
		if c.Kind == kindLeaf {
			if c.Sensitive {
				out[c.Name] = redacted
			}
			continue
		}
		out[c.Name] = redactNode(c, e)
	}
	return out
}
