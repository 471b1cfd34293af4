package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// render writes v as indented JSON or hands w to table for the table format
func render(w io.Writer, format string, v any, table func(*tabwriter.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported --output: %s", format)
	}
}
