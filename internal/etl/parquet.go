package etl

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

func parquetNode(typ models.ColumnType) (parquet.Node, error) {
	switch typ {
	case models.TypeInt:
		return parquet.Optional(parquet.Int(64)), nil
	case models.TypeFloat:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType)), nil
	case models.TypeString:
		return parquet.Optional(parquet.String()), nil
	case models.TypeBool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType)), nil
	default:
		return nil, fmt.Errorf("unsupported column type %q", typ)
	}
}

// ParquetSchema builds a flat schema with one optional leaf per column.
func ParquetSchema(table *models.Table) (*parquet.Schema, error) {
	group := make(parquet.Group, len(table.Columns))
	for _, c := range table.Columns {
		node, err := parquetNode(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		group[c.Name] = node
	}
	return parquet.NewSchema(table.Endpoint, group), nil
}

// EncodeParquet serializes the table to a Snappy-compressed Parquet file.
func EncodeParquet(table *models.Table) ([]byte, error) {
	schema, err := ParquetSchema(table)
	if err != nil {
		return nil, err
	}

	// leaf index of each column as laid out by the schema
	fields := schema.Fields()
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name()] = i
	}

	var buf bytes.Buffer
	w := parquet.NewWriter(&buf, schema,
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata("endpoint", table.Endpoint),
		parquet.KeyValueMetadata("columns", strings.Join(table.ColumnNames(), ",")),
	)

	rows := make([]parquet.Row, 0, len(table.Rows))
	for i, r := range table.Rows {
		row := make(parquet.Row, len(fields))
		for _, c := range table.Columns {
			v, err := parquetValue(r[c.Name], c.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, c.Name, err)
			}
			idx := index[c.Name]
			if v.IsNull() {
				row[idx] = v.Level(0, 0, idx)
			} else {
				row[idx] = v.Level(0, 1, idx)
			}
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if _, err := w.WriteRows(rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func parquetValue(val any, typ models.ColumnType) (parquet.Value, error) {
	if val == nil {
		return parquet.NullValue(), nil
	}
	switch typ {
	case models.TypeInt:
		if v, ok := val.(int64); ok {
			return parquet.Int64Value(v), nil
		}
	case models.TypeFloat:
		if v, ok := val.(float64); ok {
			return parquet.DoubleValue(v), nil
		}
	case models.TypeString:
		if v, ok := val.(string); ok {
			return parquet.ByteArrayValue([]byte(v)), nil
		}
	case models.TypeBool:
		if v, ok := val.(bool); ok {
			return parquet.BooleanValue(v), nil
		}
	}
	return parquet.Value{}, fmt.Errorf("%T does not match type %s", val, typ)
}
