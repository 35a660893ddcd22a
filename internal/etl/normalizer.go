package etl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

// Normalize flattens a decoded payload into the endpoint's table. Shape
// mismatches are decode-error failures and are never retried.
func Normalize(ep models.Endpoint, payload any) (*models.Table, error) {
	t := NewTransformer(&ep)

	var (
		rows []models.Row
		err  error
	)
	switch ep.Strategy {
	case models.StrategyRecords:
		rows, err = normalizeRecords(t, ep, payload, nil)
	case models.StrategyMatchSlots:
		rows, err = normalizeRecords(t, ep, payload, spreadTeams)
	case models.StrategyHeroStats:
		rows, err = normalizeRecords(t, ep, payload, joinRoles)
	case models.StrategyKeyValue:
		rows, err = normalizeKeyValue(t, ep, payload)
	case models.StrategyTimeline:
		rows, err = normalizeMatchArray(t, payload, "objectives", false)
	case models.StrategyMatchPlayers:
		rows, err = normalizeMatchArray(t, payload, "players", true)
	default:
		err = fmt.Errorf("unknown strategy %q", ep.Strategy)
	}
	if err != nil {
		return nil, newFailure(KindDecode, err, "normalize %s", ep.Name)
	}

	columns := make([]models.Column, len(ep.Columns))
	copy(columns, ep.Columns)
	return &models.Table{Endpoint: ep.Name, Columns: columns, Rows: rows}, nil
}

func normalizeRecords(t *Transformer, ep models.Endpoint, payload any, prepare func(map[string]any)) ([]models.Row, error) {
	items, err := payloadItems(ep, payload)
	if err != nil {
		return nil, err
	}
	return t.TransformRecords(items, nil, prepare)
}

func payloadItems(ep models.Endpoint, payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if ep.RowsField == "" {
			return nil, fmt.Errorf("expected array, got object")
		}
		items, ok := v[ep.RowsField].([]any)
		if !ok {
			return nil, fmt.Errorf("field %s: expected array, got %T", ep.RowsField, v[ep.RowsField])
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", payload)
	}
}

// spreadTeams turns radiant_team / dire_team hero lists into one column per slot.
// The API has served both JSON arrays and comma separated strings here.
func spreadTeams(match map[string]any) {
	for _, side := range []string{"radiant", "dire"} {
		key := side + "_team"
		heroes := heroList(match[key])
		for i, hero := range heroes {
			match[fmt.Sprintf("%s_hero_%d", side, i+1)] = hero
		}
		delete(match, key)
	}
}

func heroList(v any) []any {
	switch team := v.(type) {
	case []any:
		return team
	case string:
		var out []any
		for _, part := range strings.Split(team, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

func joinRoles(hero map[string]any) {
	roles, ok := hero["roles"].([]any)
	if !ok {
		return
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, fmt.Sprint(r))
	}
	hero["roles"] = strings.Join(names, ",")
}

func normalizeKeyValue(t *Transformer, ep models.Endpoint, payload any) ([]models.Row, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", payload)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sortKeys(keys)

	rows := make([]models.Row, 0, len(keys))
	for _, k := range keys {
		val := obj[k]
		if ep.ValueField != "" {
			if nested, ok := val.(map[string]any); ok {
				val = nested[ep.ValueField]
			}
		}
		row, err := t.TransformRecord(nil, map[string]any{ep.KeyColumn: k, ep.ValueColumn: val})
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sortKeys orders numeric keys numerically and everything else lexically after them.
func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

// normalizeMatchArray emits one row per element of a match detail array,
// stamped with the match id.
func normalizeMatchArray(t *Transformer, payload any, field string, mustExist bool) ([]models.Row, error) {
	match, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected match object, got %T", payload)
	}
	matchID, ok := match["match_id"]
	if !ok || matchID == nil {
		return nil, fmt.Errorf("missing required field match_id")
	}

	raw, present := match[field]
	if !present || raw == nil {
		if mustExist {
			return nil, fmt.Errorf("missing required field %s", field)
		}
		// unparsed matches carry no objectives
		return []models.Row{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %s: expected array, got %T", field, raw)
	}

	return t.TransformRecords(items, map[string]any{"match_id": matchID}, nil)
}
