// Package flagbind turns the leaves of a compiled schema into command-line
// flags and reads back only the flags the user actually passed.
//
// A flag that was not given on the command line is never reported, so
// "--DisableSsl=false" and leaving DisableSsl alone produce different inputs.
package flagbind

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

// Binder remembers which flags belong to which schema leaves.
type Binder struct {
	leaves []projector.Leaf
}

// Bind registers one flag per leaf of schema on fs. The flag name is the
// leaf's input name. It fails if a name is already taken by another flag.
func Bind(fs *pflag.FlagSet, schema *projector.Schema) (*Binder, error) {
	b := &Binder{}
	for _, l := range schema.Leaves() {
		if fs.Lookup(l.Input) != nil {
			return nil, fmt.Errorf("flag --%s of operation %q collides with an existing flag", l.Input, schema.Name())
		}
		usage := usageFor(l)
		switch l.Type {
		case projector.LeafBoolean:
			fs.Bool(l.Input, false, usage)
		case projector.LeafInteger:
			fs.Int64(l.Input, 0, usage)
		case projector.LeafNumber:
			fs.Float64(l.Input, 0, usage)
		case projector.LeafList:
			if structuredItems(l.Items) {
				// JSON elements contain commas; one element per flag
				fs.StringArray(l.Input, nil, usage)
			} else {
				fs.StringSlice(l.Input, nil, usage)
			}
		case projector.LeafMap:
			fs.StringToString(l.Input, nil, usage)
		default:
			fs.String(l.Input, "", usage)
		}
		b.leaves = append(b.leaves, l)
	}
	return b, nil
}

func usageFor(l projector.Leaf) string {
	parts := []string{}
	if l.Help != "" {
		parts = append(parts, l.Help)
	}
	if l.Path != l.Input {
		parts = append(parts, "sets "+l.Path)
	}
	kind := string(l.Type)
	if l.Type == projector.LeafList {
		kind = "list of " + string(l.Items)
	}
	parts = append(parts, "("+kind+")")
	if len(l.Enum) > 0 {
		parts = append(parts, "one of: "+strings.Join(l.Enum, ", "))
	}
	if l.Required {
		parts = append(parts, "[required]")
	}
	return strings.Join(parts, " ")
}

// Inputs collects the flags that were set on fs.
func (b *Binder) Inputs(fs *pflag.FlagSet) (projector.Inputs, error) {
	in := projector.Inputs{}
	for _, l := range b.leaves {
		if !fs.Changed(l.Input) {
			continue
		}
		v, err := value(fs, l)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", l.Input, err)
		}
		in.Set(l.Input, v)
	}
	return in, nil
}

func value(fs *pflag.FlagSet, l projector.Leaf) (any, error) {
	switch l.Type {
	case projector.LeafBoolean:
		return fs.GetBool(l.Input)
	case projector.LeafInteger:
		return fs.GetInt64(l.Input)
	case projector.LeafNumber:
		return fs.GetFloat64(l.Input)
	case projector.LeafMap:
		return fs.GetStringToString(l.Input)
	case projector.LeafList:
		get := fs.GetStringSlice
		if structuredItems(l.Items) {
			get = fs.GetStringArray
		}
		raw, err := get(l.Input)
		if err != nil {
			return nil, err
		}
		return listOf(l.Items, raw)
	case projector.LeafAny:
		raw, err := fs.GetString(l.Input)
		if err != nil {
			return nil, err
		}
		return jsonOrString(raw), nil
	}
	return fs.GetString(l.Input)
}

// jsonOrString decodes raw as JSON, or keeps the plain string.
func jsonOrString(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func structuredItems(t projector.LeafType) bool {
	return t == projector.LeafMap || t == projector.LeafAny
}

// listOf converts raw flag strings to the list's element type.
func listOf(items projector.LeafType, raw []string) ([]any, error) {
	out := make([]any, 0, len(raw))
	for _, s := range raw {
		var (
			v   any
			err error
		)
		switch items {
		case projector.LeafBoolean:
			v, err = strconv.ParseBool(s)
		case projector.LeafInteger:
			v, err = strconv.ParseInt(s, 10, 64)
		case projector.LeafNumber:
			v, err = strconv.ParseFloat(s, 64)
		case projector.LeafMap:
			var m map[string]any
			err = json.Unmarshal([]byte(s), &m)
			v = m
		case projector.LeafAny:
			v = jsonOrString(s)
		default:
			v = s
		}
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}
