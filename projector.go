/*
Package projector builds nested request objects from sparse, flat inputs.

A compiled Schema describes the request tree. Project walks it bottom-up,
copying every supplied input into its leaf and omitting every node none of
whose descendants were supplied. Supplying a falsy value (false, 0, "")
is not the same as not supplying it: the former is kept, the latter is absent.

	req, err := projector.Project(schema, projector.Inputs{}.
		Set("Credentials.Username", "alice"))
	// req == Node{"Credentials": Node{"Username": "alice"}}
*/
package projector

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Request is the assembled tree handed to a transport. The root is always
// materialized; an empty request is valid.
type Request = Node

// Input is one caller-supplied value. Set distinguishes an explicitly
// supplied value (including nil, false, 0 and "") from an untouched one.
type Input struct {
	Value any
	Set   bool
}

// Inputs maps input names to values. A missing entry means "not set".
type Inputs map[string]Input

// InputsOf marks every entry of m as explicitly set.
func InputsOf(m map[string]any) Inputs {
	in := make(Inputs, len(m))
	for k, v := range m {
		in[k] = Input{Value: v, Set: true}
	}
	return in
}

// Set records an explicitly supplied value and returns the receiver.
// A nil receiver gets a fresh map.
func (in Inputs) Set(name string, value any) Inputs {
	if in == nil {
		in = Inputs{}
	}
	in[name] = Input{Value: value, Set: true}
	return in
}

// Unset forgets name, so it counts as never supplied.
func (in Inputs) Unset(name string) Inputs {
	delete(in, name)
	return in
}

// Lookup returns the value for name and whether it was explicitly set.
func (in Inputs) Lookup(name string) (any, bool) {
	v, ok := in[name]
	if !ok || !v.Set {
		return nil, false
	}
	return v.Value, true
}

// Merge returns a new Inputs holding in overlaid by the set entries of other.
func (in Inputs) Merge(other Inputs) Inputs {
	out := maps.Clone(in)
	if out == nil {
		out = Inputs{}
	}
	for k, v := range other {
		if v.Set {
			out[k] = v
		}
	}
	return out
}

// Mode selects how Project treats input names the schema does not know.
type Mode int

const (
	// Strict rejects unknown input names with a SchemaViolation.
	Strict Mode = iota
	// Lenient ignores unknown input names.
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

type projectConfig struct {
	mode Mode
}

// ProjectOption customises a Project call.
type ProjectOption func(*projectConfig)

// WithMode selects strict or lenient handling of unknown input names.
func WithMode(m Mode) ProjectOption {
	return func(c *projectConfig) { c.mode = m }
}

// Project assembles the request described by schema from inputs.
// It is a pure function of its arguments.
func Project(schema *Schema, inputs Inputs, opts ...ProjectOption) (Request, error) {
	if schema == nil || schema.root == nil {
		return nil, argError("nil schema")
	}
	cfg := projectConfig{mode: Strict}
	for _, o := range opts {
		o(&cfg)
	}

	p := &projection{inputs: inputs}
	if cfg.mode == Strict {
		for _, name := range slices.Sorted(maps.Keys(inputs)) {
			if !inputs[name].Set {
				continue
			}
			if _, ok := schema.inputs[name]; !ok {
				p.fail(fmt.Errorf("unknown input %q", name))
			}
		}
	}

	req, present := p.assemble(schema.root, true)
	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, schemaViolation(fmt.Sprintf("cannot project request for %q", schema.name),
			WithCause(err), WithContext(map[string]any{"operation": schema.name}))
	}
	if !present {
		req = Node{}
	}
	return req, nil
}

// UnknownInputs lists the set inputs that schema has no leaf for, sorted.
func UnknownInputs(schema *Schema, inputs Inputs) []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(inputs)) {
		if _, ok := schema.inputs[name]; !ok && inputs[name].Set {
			out = append(out, name)
		}
	}
	return out
}

type projection struct {
	inputs Inputs
	errs   *multierror.Error
}

func (p *projection) fail(err error) {
	p.errs = multierror.Append(p.errs, err)
}

// assemble resolves n's children first, then n itself.
func (p *projection) assemble(n *schemaNode, root bool) (Node, bool) {
	parts := make([]Part, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == kindLeaf {
			in := p.inputs[c.Input]
			ok := in.Set
			if ok {
				if err := checkValue(c, in.Value); err != nil {
					p.fail(err)
					ok = false
				}
			}
			parts = append(parts, SetIfPresent(c.Name, in.Value, ok))
			continue
		}
		child, present := p.assemble(c, false)
		parts = append(parts, NewBranch(c.Name, child, present))
	}

	node, present := Assemble(parts...)
	if present || root {
		p.checkRequired(n, node)
	}
	return node, present
}

// checkRequired only runs for present nodes: required children of an
// omitted structure are not required.
func (p *projection) checkRequired(n *schemaNode, node Node) {
	for _, c := range n.Children {
		if !c.Required {
			continue
		}
		v, ok := node[c.Name]
		switch {
		case !ok && c.Kind == kindLeaf:
			p.fail(fmt.Errorf("required input %q (%s) is missing", c.Input, c.Path))
		case !ok:
			p.fail(fmt.Errorf("required structure %s is missing", c.Path))
		case v == nil:
			p.fail(fmt.Errorf("required input %q (%s) is null", c.Input, c.Path))
		}
	}
}

// checkValue reports whether v has the shape n declares. nil is always
// accepted here; required-ness is checked separately.
func checkValue(n *schemaNode, v any) error {
	if v == nil {
		return nil
	}
	if err := checkShape(n.Type, n.Items, v); err != nil {
		return fmt.Errorf("input %q (%s): %w", n.Input, n.Path, err)
	}
	if len(n.Enum) == 0 {
		return nil
	}
	check := func(s string) error {
		if !slices.Contains(n.Enum, s) {
			return fmt.Errorf("input %q (%s): value %q not in %v", n.Input, n.Path, s, n.Enum)
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return check(rv.String())
	}
	for i := 0; i < rv.Len(); i++ {
		e := reflect.ValueOf(rv.Index(i).Interface())
		if e.Kind() != reflect.String {
			continue
		}
		if err := check(e.String()); err != nil {
			return err
		}
	}
	return nil
}

func checkShape(t, items LeafType, v any) error {
	rv := reflect.ValueOf(v)
	k := rv.Kind()
	switch t {
	case LeafAny:
		return nil
	case LeafString:
		if k == reflect.String {
			return nil
		}
	case LeafBoolean:
		if k == reflect.Bool {
			return nil
		}
	case LeafInteger:
		if isInt(k) {
			return nil
		}
		if isFloat(k) && rv.Float() == float64(int64(rv.Float())) {
			return nil
		}
	case LeafNumber:
		if isInt(k) || isFloat(k) {
			return nil
		}
	case LeafTimestamp:
		switch tv := v.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := time.Parse(time.RFC3339, tv); err == nil {
				return nil
			}
			return fmt.Errorf("%q is not an RFC 3339 timestamp", tv)
		}
	case LeafList:
		if k == reflect.Slice || k == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				elem := rv.Index(i).Interface()
				if elem == nil {
					continue
				}
				if err := checkShape(items, "", elem); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			return nil
		}
	case LeafMap:
		if k == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			return nil
		}
	}
	return fmt.Errorf("expected %s, got %T", t, v)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uint64
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
