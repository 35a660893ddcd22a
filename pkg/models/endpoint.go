package models

import (
	"encoding/json"
	"fmt"
)

// Strategy tags how an endpoint payload is flattened into rows.
type Strategy string

const (
	StrategyRecords      Strategy = "records"
	StrategyMatchSlots   Strategy = "match_slots"
	StrategyKeyValue     Strategy = "key_value"
	StrategyTimeline     Strategy = "timeline"
	StrategyMatchPlayers Strategy = "match_players"
	// StrategyHeroStats is records with the roles list joined by commas.
	StrategyHeroStats    Strategy = "hero_stats"
)

// ColumnType is the scalar type of a table column.
type ColumnType string

const (
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeString ColumnType = "string"
	TypeBool   ColumnType = "bool"
)

type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Required bool       `json:"required,omitempty"`
}

type Pagination struct {
	CursorParam string `json:"cursorParam"`
	CursorField string `json:"cursorField"`
	Pages       int    `json:"pages"`
}

// Endpoint describes one upstream resource and how to normalize it.
type Endpoint struct {
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	Query      map[string]string `json:"query,omitempty"`
	PathParams map[string]string `json:"pathParams,omitempty"`
	Strategy   Strategy          `json:"strategy"`
	Columns    []Column          `json:"columns"`

	// key_value options
	KeyColumn   string `json:"keyColumn,omitempty"`
	ValueColumn string `json:"valueColumn,omitempty"`
	ValueField  string `json:"valueField,omitempty"`

	// RowsField selects a nested array when the payload is an object.
	RowsField string `json:"rowsField,omitempty"`

	// MatchScoped endpoints are expanded once per configured match id.
	MatchScoped bool        `json:"matchScoped,omitempty"`
	Pagination  *Pagination `json:"pagination,omitempty"`
}

// ColumnNames returns the declared column names in order.
func (e Endpoint) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

func (e Endpoint) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Check reports descriptor mistakes that would make normalization impossible.
func (e Endpoint) Check() error {
	if e.Name == "" {
		return fmt.Errorf("endpoint without name")
	}
	if e.Path == "" {
		return fmt.Errorf("endpoint %s: path is required", e.Name)
	}
	if len(e.Columns) == 0 {
		return fmt.Errorf("endpoint %s: no columns declared", e.Name)
	}
	seen := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if c.Name == "" {
			return fmt.Errorf("endpoint %s: column without name", e.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("endpoint %s: duplicate column %s", e.Name, c.Name)
		}
		seen[c.Name] = true
		switch c.Type {
		case TypeInt, TypeFloat, TypeString, TypeBool:
		default:
			return fmt.Errorf("endpoint %s: column %s has unknown type %q", e.Name, c.Name, c.Type)
		}
	}
	switch e.Strategy {
	case StrategyRecords, StrategyMatchSlots, StrategyTimeline, StrategyMatchPlayers, StrategyHeroStats:
	case StrategyKeyValue:
		if e.KeyColumn == "" || e.ValueColumn == "" {
			return fmt.Errorf("endpoint %s: key_value needs keyColumn and valueColumn", e.Name)
		}
	default:
		return fmt.Errorf("endpoint %s: unknown strategy %q", e.Name, e.Strategy)
	}
	if p := e.Pagination; p != nil && (p.CursorParam == "" || p.CursorField == "") {
		return fmt.Errorf("endpoint %s: pagination needs cursorParam and cursorField", e.Name)
	}
	return nil
}

// Catalog is the root of an endpoint catalog file.
type Catalog struct {
	Version   string     `json:"version"`
	Endpoints []Endpoint `json:"endpoints"`
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
