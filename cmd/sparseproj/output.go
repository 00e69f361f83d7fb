package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		b, err := cbor.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "go":
		_, err := io.WriteString(w, spew.Sdump(v))
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
