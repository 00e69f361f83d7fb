/*
Package projector – response selection.

A Selection picks what a caller gets back from an invocation: the whole
response, one value inside it, or one of the inputs that were sent.
*/
package projector

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// SelectKind enumerates the selection forms.
type SelectKind int

const (
	SelectWhole SelectKind = iota
	SelectPath
	SelectInput
)

// Selection is a parsed selection expression. The zero value selects the
// whole response.
type Selection struct {
	Kind  SelectKind
	Path  string // SelectPath: dotted path, e.g. "DataSource.Arn" or "Items[0].Id"
	Input string // SelectInput: input name to echo back

	expr jp.Expr
}

// ParseSelection parses expr:
//
//	"" or "*"   whole response
//	"^Name"     echo the input named Name
//	"A.B[0].C"  value at that path in the response
func ParseSelection(expr string) (Selection, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "" || expr == "*":
		return Selection{Kind: SelectWhole}, nil
	case strings.HasPrefix(expr, "^"):
		name := strings.TrimPrefix(expr, "^")
		if name == "" {
			return Selection{}, argError("empty input name in selection")
		}
		return Selection{Kind: SelectInput, Input: name}, nil
	}
	return SelectingPath(expr)
}

// SelectingPath builds a path selection.
func SelectingPath(path string) (Selection, error) {
	src := path
	if !strings.HasPrefix(src, "$") {
		src = "$." + src
	}
	x, err := jp.ParseString(src)
	if err != nil {
		return Selection{}, NewError(fmt.Sprintf("invalid selection path %q", path),
			WithCode(ErrArgument), WithCause(err))
	}
	return Selection{Kind: SelectPath, Path: path, expr: x}, nil
}

// EchoInput builds a selection returning the named input.
func EchoInput(name string) Selection {
	return Selection{Kind: SelectInput, Input: name}
}

func (s Selection) String() string {
	switch s.Kind {
	case SelectPath:
		return s.Path
	case SelectInput:
		return "^" + s.Input
	}
	return "*"
}

// Select applies sel to a response, or to inputs for echo selections.
// A path with a wildcard, slice, union or filter always yields a []any.
func Select(sel Selection, response any, inputs Inputs) (any, error) {
	switch sel.Kind {
	case SelectWhole:
		return response, nil
	case SelectInput:
		v, ok := inputs.Lookup(sel.Input)
		if !ok {
			return nil, fieldNotFound(fmt.Sprintf("input %q was not supplied", sel.Input),
				map[string]any{"input": sel.Input})
		}
		return v, nil
	case SelectPath:
		if sel.expr == nil {
			parsed, err := SelectingPath(sel.Path)
			if err != nil {
				return nil, err
			}
			sel = parsed
		}
		return selectPath(sel, generic(response))
	}
	return nil, argError(fmt.Sprintf("unknown selection kind %d", sel.Kind))
}

func selectPath(sel Selection, data any) (any, error) {
	found := sel.expr.Get(data)
	multi := multiAt(sel.expr)
	if multi > 0 {
		// wildcards and filters always yield a list, even an empty one
		if len(found) > 0 || len(sel.expr[:multi].Get(data)) > 0 {
			return append([]any{}, found...), nil
		}
	}
	switch len(found) {
	case 0:
		missing := sel.Path
		// report the first segment that stops matching
		for i := 2; i <= len(sel.expr); i++ {
			if len(sel.expr[:i].Get(data)) == 0 {
				missing = strings.TrimPrefix(sel.expr[:i].String(), "$.")
				break
			}
		}
		return nil, fieldNotFound(fmt.Sprintf("field %q not found in response", missing),
			map[string]any{"path": sel.Path, "missing": missing})
	case 1:
		return found[0], nil
	}
	return found, nil
}

// multiAt returns the index of the first fragment that can match more than
// one value, or 0 when there is none.
func multiAt(x jp.Expr) int {
	for i, f := range x {
		switch f.(type) {
		case jp.Wildcard, jp.Descent, jp.Union, jp.Slice, *jp.Filter:
			return i
		}
	}
	return 0
}

// generic converts v into plain maps, slices and scalars so paths can walk it.
// Structs (SDK output shapes) go through JSON, keyed by their field names.
func generic(v any) any {
	switch tv := v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		return v
	case Node:
		return genericMap(tv)
	case map[string]any:
		return genericMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = generic(e)
		}
		return out
	case []byte:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = generic(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = generic(rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if rv.Elem().Kind() != reflect.Struct {
			return generic(rv.Elem().Interface())
		}
	case reflect.Struct:
	default:
		return v
	}

	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func genericMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = generic(e)
	}
	return out
}
