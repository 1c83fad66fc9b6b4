package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// printResult writes v as indented JSON or as YAML. YAML output goes through
// JSON first so both formats use the same field names.
func printResult(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if format != "yaml" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = w.Write(out)
	return err
}
