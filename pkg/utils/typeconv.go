package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

var jsonText = jsoniter.ConfigCompatibleWithStandardLibrary

// ConvertToColumnType coerces a decoded JSON value to the column's scalar type.
// nil stays nil so optional columns become nulls.
func ConvertToColumnType(val interface{}, col models.Column) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	switch col.Type {
	case models.TypeInt:
		return ConvertToInt64(val)
	case models.TypeFloat:
		return ConvertToFloat(val)
	case models.TypeBool:
		return ConvertToBool(val)
	case models.TypeString:
		return ConvertToString(val)
	default:
		return nil, fmt.Errorf("unknown column type %q", col.Type)
	}
}

func ConvertToInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("cannot convert %v to int without losing precision", v)
		}
		if v < -(1<<63) || v >= 1<<63 {
			return 0, fmt.Errorf("%v is out of int64 range", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%q is out of int64 range", v)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int", v)
		}
		return ConvertToInt64(f)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

func ConvertToFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", val)
	}
}

func ConvertToBool(val interface{}) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("cannot convert %T to bool", val)
	}
}

// ConvertToString renders scalars as text and nested values as compact JSON.
func ConvertToString(val interface{}) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	default:
		b, err := jsonText.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("cannot encode %T as JSON text: %w", val, err)
		}
		return string(b), nil
	}
}

// MinInt64 returns the smallest integer-convertible value of field across items.
// Used to derive pagination cursors.
func MinInt64(items []interface{}, field string) (int64, bool) {
	var (
		min   int64
		found bool
	)
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		v, err := ConvertToInt64(m[field])
		if m[field] == nil || err != nil {
			continue
		}
		if !found || v < min {
			min, found = v, true
		}
	}
	return min, found
}
