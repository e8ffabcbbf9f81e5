package main

import (
	"encoding/json"
	"fmt"
	"io"
)

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
