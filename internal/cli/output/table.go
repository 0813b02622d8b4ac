package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats data as an aligned table.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
//
// Objects become KEY/VALUE rows with nested keys joined by '.'. Lists of
// objects get one column per key. Anything else is printed as a single
// value.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	generic, err := toGeneric(data)
	if err != nil {
		return err
	}

	switch v := generic.(type) {
	case map[string]any:
		return objectTable(v).RenderWithOptions(w, f.NoHeaders)
	case []any:
		return listTable(v).RenderWithOptions(w, f.NoHeaders)
	default:
		_, err := fmt.Fprintln(w, formatCell(v))
		return err
	}
}

func objectTable(obj map[string]any) *Table {
	flat := make(map[string]any)
	flatten("", obj, flat)

	table := &Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range sortedKeys(flat) {
		table.AddRow(k, formatCell(flat[k]))
	}
	return table
}

func listTable(items []any) *Table {
	if len(items) == 0 {
		return &Table{}
	}

	rows := make([]map[string]any, 0, len(items))
	columns := make(map[string]struct{})
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			obj = map[string]any{"value": item}
		}
		flat := make(map[string]any)
		flatten("", obj, flat)
		for k := range flat {
			columns[k] = struct{}{}
		}
		rows = append(rows, flat)
	}

	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := &Table{}
	for _, k := range keys {
		table.Headers = append(table.Headers, headerName(k))
	}
	for _, row := range rows {
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = formatCell(row[k])
		}
		table.AddRow(cells...)
	}
	return table
}

// flatten copies obj into dst, joining nested object keys with '.'.
func flatten(prefix string, obj map[string]any, dst map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, dst)
			continue
		}
		dst[key] = v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// headerName turns "identity.key_id" into "IDENTITY.KEY_ID".
func headerName(key string) string {
	return strings.ToUpper(key)
}

// formatCell renders one decoded JSON value.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		if len(x) == 0 {
			return "-"
		}
		parts := make([]string, 0, len(x))
		for _, item := range x {
			switch item.(type) {
			case map[string]any, []any:
				return fmt.Sprintf("[%d items]", len(x))
			}
			parts = append(parts, formatCell(item))
		}
		return strings.Join(parts, ",")
	case map[string]any:
		if len(x) == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", len(x))
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
