package etl

import (
	"fmt"

	"github.com/BartekS5/opendota-extract/pkg/models"
	"github.com/BartekS5/opendota-extract/pkg/utils"
)

// Transformer projects decoded JSON objects onto an endpoint's declared columns.
type Transformer struct {
	Config *models.Endpoint
}

func NewTransformer(config *models.Endpoint) *Transformer {
	return &Transformer{Config: config}
}

// TransformRecord builds one row holding exactly the declared columns.
// Values in extra win over values in src.
func (t *Transformer) TransformRecord(src map[string]interface{}, extra map[string]interface{}) (models.Row, error) {
	row := make(models.Row, len(t.Config.Columns))

	for _, colCfg := range t.Config.Columns {
		val, ok := extra[colCfg.Name]
		if !ok {
			val = src[colCfg.Name]
		}

		converted, err := utils.ConvertToColumnType(val, colCfg)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", colCfg.Name, err)
		}
		if converted == nil && colCfg.Required {
			return nil, fmt.Errorf("missing required field %s", colCfg.Name)
		}
		row[colCfg.Name] = converted
	}

	return row, nil
}

// TransformRecords applies TransformRecord to every object in items.
func (t *Transformer) TransformRecords(items []interface{}, extra map[string]interface{}, prepare func(map[string]interface{})) ([]models.Row, error) {
	rows := make([]models.Row, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("item %d: expected object, got %T", i, item)
		}
		if prepare != nil {
			obj = cloneMap(obj)
			prepare(obj)
		}
		row, err := t.TransformRecord(obj, extra)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
