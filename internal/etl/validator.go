package etl

import (
	"fmt"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

type Validator struct {
	Config *models.Endpoint
}

func NewValidator(config *models.Endpoint) *Validator {
	return &Validator{Config: config}
}

// ValidateTable checks that every row carries exactly the declared columns with
// values of the declared types.
func (v *Validator) ValidateTable(table *models.Table) error {
	if table == nil {
		return newFailure(KindDecode, nil, "%s: no table", v.Config.Name)
	}
	if len(table.Columns) != len(v.Config.Columns) {
		return newFailure(KindDecode, nil, "%s: table has %d columns, schema declares %d", v.Config.Name, len(table.Columns), len(v.Config.Columns))
	}
	for i, c := range v.Config.Columns {
		if table.Columns[i] != c {
			return newFailure(KindDecode, nil, "%s: column %d is %s, schema declares %s", v.Config.Name, i, table.Columns[i].Name, c.Name)
		}
	}

	for i, row := range table.Rows {
		if err := v.ValidateRow(row); err != nil {
			return newFailure(KindDecode, err, "%s: row %d", v.Config.Name, i)
		}
	}
	return nil
}

func (v *Validator) ValidateRow(row models.Row) error {
	if len(row) != len(v.Config.Columns) {
		return fmt.Errorf("row has %d columns, schema declares %d", len(row), len(v.Config.Columns))
	}
	for _, c := range v.Config.Columns {
		val, ok := row[c.Name]
		if !ok {
			return fmt.Errorf("missing column %s", c.Name)
		}
		if val == nil {
			if c.Required {
				return fmt.Errorf("required column %s is null", c.Name)
			}
			continue
		}
		if !matchesType(val, c.Type) {
			return fmt.Errorf("column %s: %T does not match type %s", c.Name, val, c.Type)
		}
	}
	return nil
}

func matchesType(val any, typ models.ColumnType) bool {
	switch val.(type) {
	case int64:
		return typ == models.TypeInt
	case float64:
		return typ == models.TypeFloat
	case string:
		return typ == models.TypeString
	case bool:
		return typ == models.TypeBool
	default:
		return false
	}
}
