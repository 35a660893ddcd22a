package etl

import (
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func catalogEndpoint(t *testing.T, name string) models.Endpoint {
	t.Helper()
	for _, ep := range DefaultCatalog(1) {
		if ep.Name == name {
			return ep
		}
	}
	t.Fatalf("endpoint %s not in catalog", name)
	return models.Endpoint{}
}

func assertColumns(t *testing.T, ep models.Endpoint, table *models.Table) {
	t.Helper()
	for i, row := range table.Rows {
		if len(row) != len(ep.Columns) {
			t.Fatalf("row %d has %d columns, want %d", i, len(row), len(ep.Columns))
		}
		for _, c := range ep.Columns {
			if _, ok := row[c.Name]; !ok {
				t.Fatalf("row %d missing column %s", i, c.Name)
			}
		}
	}
}

const publicMatchesFixture = `[
	{"match_id": 7891234567, "match_seq_num": 6612345678, "radiant_win": true, "start_time": 1718000000,
	 "duration": 2100, "lobby_type": 7, "game_mode": 22, "avg_rank_tier": 54, "num_rank_tier": 8, "cluster": 123,
	 "radiant_team": [1, 2, 3, 4, 5], "dire_team": [6, 7, 8, 9, 10]},
	{"match_id": 7891234566, "radiant_win": false, "start_time": 1717999000, "duration": 1800,
	 "radiant_team": "11,12,13,14,15", "dire_team": "16,17,18,19,20"},
	{"match_id": 7891234565, "radiant_win": true, "start_time": 1717998000, "duration": 2400, "extra_field": "ignored"}
]`

func TestNormalize_PublicMatches(t *testing.T) {
	ep := catalogEndpoint(t, "public_matches")
	table, err := Normalize(ep, decode(t, publicMatchesFixture))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("rows: got %d, want 3", table.Len())
	}
	assertColumns(t, ep, table)

	first := table.Rows[0]
	if first["match_id"] != int64(7891234567) {
		t.Errorf("match_id: got %#v", first["match_id"])
	}
	if first["radiant_hero_1"] != int64(1) || first["dire_hero_5"] != int64(10) {
		t.Errorf("hero slots: got %#v / %#v", first["radiant_hero_1"], first["dire_hero_5"])
	}
	if table.Rows[1]["radiant_hero_3"] != int64(13) {
		t.Errorf("comma separated team: got %#v", table.Rows[1]["radiant_hero_3"])
	}
	if table.Rows[2]["radiant_hero_1"] != nil {
		t.Errorf("missing team should give null slots, got %#v", table.Rows[2]["radiant_hero_1"])
	}
	if _, ok := table.Rows[2]["extra_field"]; ok {
		t.Error("undeclared field leaked into row")
	}
}

func TestNormalize_MissingRequiredField(t *testing.T) {
	ep := catalogEndpoint(t, "public_matches")
	_, err := Normalize(ep, decode(t, `[{"match_id": 1, "duration": 10}]`))
	if KindOf(err) != KindDecode {
		t.Fatalf("expected decode-error, got %v", err)
	}
}

func TestNormalize_ObjectWhereArrayExpected(t *testing.T) {
	ep := catalogEndpoint(t, "heroes")
	_, err := Normalize(ep, decode(t, `{"error": "unexpected"}`))
	if KindOf(err) != KindDecode {
		t.Fatalf("expected decode-error, got %v", err)
	}
}

func TestNormalize_HeroStatsJoinsRoles(t *testing.T) {
	ep := catalogEndpoint(t, "hero_stats")
	table, err := Normalize(ep, decode(t, `[
		{"id": 1, "localized_name": "Anti-Mage", "roles": ["Carry", "Escape", "Nuker"], "1_pick": 100, "1_win": 51, "pro_ban": 3}
	]`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	assertColumns(t, ep, table)

	row := table.Rows[0]
	if row["roles"] != "Carry,Escape,Nuker" {
		t.Errorf("roles: got %#v", row["roles"])
	}
	if row["1_pick"] != int64(100) || row["8_win"] != nil {
		t.Errorf("bracket columns: got %#v / %#v", row["1_pick"], row["8_win"])
	}
}

func TestNormalize_KeyValue(t *testing.T) {
	ep := catalogEndpoint(t, "lobby_types")
	table, err := Normalize(ep, decode(t, `{
		"10": {"id": 10, "name": "lobby_type_tutorial"},
		"2": {"id": 2, "name": "lobby_type_tournament"},
		"0": {"id": 0, "name": "lobby_type_normal"}
	}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("rows: got %d, want 3", table.Len())
	}
	wantIDs := []int64{0, 2, 10}
	for i, id := range wantIDs {
		if table.Rows[i]["lobby_id"] != id {
			t.Errorf("row %d lobby_id: got %#v, want %d", i, table.Rows[i]["lobby_id"], id)
		}
	}
	if table.Rows[0]["name"] != "lobby_type_normal" {
		t.Errorf("name: got %#v", table.Rows[0]["name"])
	}
}

func TestNormalize_KeyValueScalarValues(t *testing.T) {
	ep := catalogEndpoint(t, "clusters")
	table, err := Normalize(ep, decode(t, `{"111": 1, "227": 3}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if table.Rows[1]["cluster_id"] != int64(227) || table.Rows[1]["region"] != int64(3) {
		t.Errorf("got %#v", table.Rows[1])
	}
}

const matchFixture = `{
	"match_id": 7001,
	"objectives": [
		{"time": 95, "type": "CHAT_MESSAGE_FIRSTBLOOD", "slot": 3, "player_slot": 3},
		{"time": 612, "type": "building_kill", "unit": "npc_dota_hero_axe", "key": "npc_dota_goodguys_tower1_mid"}
	],
	"players": [
		{"player_slot": 0, "account_id": 111, "hero_id": 1, "isRadiant": true, "win": 1, "kills": 10, "deaths": 2},
		{"player_slot": 128, "account_id": null, "hero_id": 2, "isRadiant": false, "win": 0, "kills": 3, "deaths": 7}
	]
}`

func TestNormalize_Timeline(t *testing.T) {
	ep := catalogEndpoint(t, "match_timeline")
	table, err := Normalize(ep, decode(t, matchFixture))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	assertColumns(t, ep, table)

	if table.Len() != 2 {
		t.Fatalf("rows: got %d, want 2", table.Len())
	}
	for _, row := range table.Rows {
		if row["match_id"] != int64(7001) {
			t.Errorf("match_id not stamped: %#v", row["match_id"])
		}
	}
	if table.Rows[1]["key"] != "npc_dota_goodguys_tower1_mid" {
		t.Errorf("key: got %#v", table.Rows[1]["key"])
	}
}

func TestNormalize_TimelineWithoutObjectives(t *testing.T) {
	ep := catalogEndpoint(t, "match_timeline")
	table, err := Normalize(ep, decode(t, `{"match_id": 7002, "players": []}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("rows: got %d, want 0", table.Len())
	}
	if len(table.Columns) != len(ep.Columns) {
		t.Errorf("empty table must still declare %d columns", len(ep.Columns))
	}
}

func TestNormalize_MatchPlayers(t *testing.T) {
	ep := catalogEndpoint(t, "match_players")
	table, err := Normalize(ep, decode(t, matchFixture))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	assertColumns(t, ep, table)

	if table.Rows[1]["account_id"] != nil {
		t.Errorf("anonymous account should be null, got %#v", table.Rows[1]["account_id"])
	}
	if table.Rows[0]["isRadiant"] != true {
		t.Errorf("isRadiant: got %#v", table.Rows[0]["isRadiant"])
	}

	if _, err := Normalize(ep, decode(t, `{"match_id": 7003}`)); KindOf(err) != KindDecode {
		t.Errorf("missing players should be decode-error, got %v", err)
	}
}

func TestNormalize_RowsField(t *testing.T) {
	ep := models.Endpoint{
		Name:      "search",
		Path:      "/search",
		Strategy:  models.StrategyRecords,
		RowsField: "rows",
		Columns:   []models.Column{{Name: "account_id", Type: models.TypeInt, Required: true}},
	}
	table, err := Normalize(ep, decode(t, `{"rowCount": 2, "rows": [{"account_id": 1}, {"account_id": 2}]}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("rows: got %d, want 2", table.Len())
	}
}

func TestNormalize_HeroesRolesMatchHeroStats(t *testing.T) {
	payload := `[{"id": 1, "localized_name": "Anti-Mage", "roles": ["Carry", "Escape", "Nuker"], "legs": 2}]`

	heroes, err := Normalize(catalogEndpoint(t, "heroes"), decode(t, payload))
	if err != nil {
		t.Fatalf("heroes: %v", err)
	}
	stats, err := Normalize(catalogEndpoint(t, "hero_stats"), decode(t, payload))
	if err != nil {
		t.Fatalf("hero_stats: %v", err)
	}

	if heroes.Rows[0]["roles"] != "Carry,Escape,Nuker" {
		t.Errorf("heroes roles: got %#v", heroes.Rows[0]["roles"])
	}
	if heroes.Rows[0]["roles"] != stats.Rows[0]["roles"] {
		t.Errorf("roles differ: %#v vs %#v", heroes.Rows[0]["roles"], stats.Rows[0]["roles"])
	}
	if heroes.Rows[0]["legs"] != int64(2) {
		t.Errorf("legs: got %#v", heroes.Rows[0]["legs"])
	}
}

func TestNormalize_OutOfRangeIntIsDecodeError(t *testing.T) {
	ep := catalogEndpoint(t, "heroes")
	_, err := Normalize(ep, decode(t, `[{"id": 99999999999999999999}]`))
	if KindOf(err) != KindDecode {
		t.Fatalf("expected decode-error, got %v", err)
	}
}
