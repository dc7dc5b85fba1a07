// Package output renders decoded Admin API responses as JSON, YAML or a
// table.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Write renders value in format. Tables show columns, or every key of the
// first row when columns is empty.
func Write(w io.Writer, format string, value any, columns ...string) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("encoding to JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("encoding to YAML: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable:
		return writeTable(w, rows(value), columns)
	default:
		return fmt.Errorf("%w: %q", constants.ErrUnknownOutputFormat, format)
	}
}

func rows(value any) []map[string]any {
	switch v := value.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))

		for _, item := range v {
			if row, ok := item.(map[string]any); ok {
				out = append(out, row)
			} else {
				out = append(out, map[string]any{"value": item})
			}
		}

		return out
	case map[string]any:
		return []map[string]any{v}
	case nil:
		return nil
	default:
		return []map[string]any{{"value": v}}
	}
}

func writeTable(w io.Writer, rows []map[string]any, columns []string) error {
	if len(columns) == 0 && len(rows) > 0 {
		for key := range rows[0] {
			columns = append(columns, key)
		}

		sort.Strings(columns)
	}

	table := tablewriter.NewWriter(w)

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}

	table.Header(header...)

	for _, row := range rows {
		cells := make([]any, len(columns))
		for i, column := range columns {
			cells[i] = cell(row[column])
		}

		err := table.Append(cells...)
		if err != nil {
			return fmt.Errorf("appending table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	return nil
}

func cell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
