package models

// Row maps a column name to a scalar value (int64, float64, string, bool or nil).
type Row map[string]any

// Table is the normalized output of one endpoint.
type Table struct {
	Endpoint string
	Columns  []Column
	Rows     []Row
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
