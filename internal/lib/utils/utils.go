// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrintJSON writes v to w as indented JSON followed by a newline.
//
// A nil pointer or nil map prints as "null", which is how an absent
// lookup result shows up in demonstration output.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling the JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
