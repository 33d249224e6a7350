package main

import (
	"encoding/json"
	"io"
)

// writeJSON renders v as indented JSON, matching the layout of the exported
// dataset artifacts.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
