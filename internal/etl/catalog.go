package etl

import (
	"fmt"
	"strconv"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

func col(name string, typ models.ColumnType) models.Column {
	return models.Column{Name: name, Type: typ}
}

func required(name string, typ models.ColumnType) models.Column {
	return models.Column{Name: name, Type: typ, Required: true}
}

func matchCursor(pages int) *models.Pagination {
	return &models.Pagination{CursorParam: "less_than_match_id", CursorField: "match_id", Pages: pages}
}

// DefaultCatalog returns the built-in OpenDota endpoints. pages sets how many
// pages the paginated match listings pull.
func DefaultCatalog(pages int) []models.Endpoint {
	if pages < 1 {
		pages = 1
	}

	publicMatchCols := []models.Column{
		required("match_id", models.TypeInt),
		col("match_seq_num", models.TypeInt),
		col("radiant_win", models.TypeBool),
		required("start_time", models.TypeInt),
		required("duration", models.TypeInt),
		col("lobby_type", models.TypeInt),
		col("game_mode", models.TypeInt),
		col("avg_rank_tier", models.TypeInt),
		col("num_rank_tier", models.TypeInt),
		col("cluster", models.TypeInt),
	}
	for i := 1; i <= 5; i++ {
		publicMatchCols = append(publicMatchCols, col(fmt.Sprintf("radiant_hero_%d", i), models.TypeInt))
	}
	for i := 1; i <= 5; i++ {
		publicMatchCols = append(publicMatchCols, col(fmt.Sprintf("dire_hero_%d", i), models.TypeInt))
	}

	heroStatsCols := []models.Column{
		required("id", models.TypeInt),
		col("name", models.TypeString),
		col("localized_name", models.TypeString),
		col("primary_attr", models.TypeString),
		col("attack_type", models.TypeString),
		col("roles", models.TypeString),
		col("pro_pick", models.TypeInt),
		col("pro_win", models.TypeInt),
		col("pro_ban", models.TypeInt),
		col("turbo_picks", models.TypeInt),
		col("turbo_wins", models.TypeInt),
		col("pub_pick", models.TypeInt),
		col("pub_win", models.TypeInt),
	}
	for bracket := 1; bracket <= 8; bracket++ {
		heroStatsCols = append(heroStatsCols,
			col(strconv.Itoa(bracket)+"_pick", models.TypeInt),
			col(strconv.Itoa(bracket)+"_win", models.TypeInt),
		)
	}

	return []models.Endpoint{
		{
			Name:       "public_matches",
			Path:       "/publicMatches",
			Strategy:   models.StrategyMatchSlots,
			Columns:    publicMatchCols,
			Pagination: matchCursor(pages),
		},
		{
			Name:     "pro_matches",
			Path:     "/proMatches",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("match_id", models.TypeInt),
				col("duration", models.TypeInt),
				col("start_time", models.TypeInt),
				col("radiant_team_id", models.TypeInt),
				col("radiant_name", models.TypeString),
				col("dire_team_id", models.TypeInt),
				col("dire_name", models.TypeString),
				col("leagueid", models.TypeInt),
				col("league_name", models.TypeString),
				col("series_id", models.TypeInt),
				col("series_type", models.TypeInt),
				col("radiant_score", models.TypeInt),
				col("dire_score", models.TypeInt),
				col("radiant_win", models.TypeBool),
			},
			Pagination: matchCursor(pages),
		},
		{
			Name:     "heroes",
			Path:     "/heroes",
			Strategy: models.StrategyHeroStats,
			Columns: []models.Column{
				required("id", models.TypeInt),
				col("name", models.TypeString),
				col("localized_name", models.TypeString),
				col("primary_attr", models.TypeString),
				col("attack_type", models.TypeString),
				col("roles", models.TypeString),
				col("legs", models.TypeInt),
			},
		},
		{
			Name:     "hero_stats",
			Path:     "/heroStats",
			Strategy: models.StrategyHeroStats,
			Columns:  heroStatsCols,
		},
		{
			Name:     "teams",
			Path:     "/teams",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("team_id", models.TypeInt),
				col("rating", models.TypeFloat),
				col("wins", models.TypeInt),
				col("losses", models.TypeInt),
				col("last_match_time", models.TypeInt),
				col("name", models.TypeString),
				col("tag", models.TypeString),
				col("logo_url", models.TypeString),
			},
		},
		{
			Name:     "leagues",
			Path:     "/leagues",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("leagueid", models.TypeInt),
				col("ticket", models.TypeString),
				col("banner", models.TypeString),
				col("tier", models.TypeString),
				col("name", models.TypeString),
			},
		},
		{
			Name:     "pro_players",
			Path:     "/proPlayers",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("account_id", models.TypeInt),
				col("steamid", models.TypeString),
				col("avatar", models.TypeString),
				col("personaname", models.TypeString),
				col("name", models.TypeString),
				col("country_code", models.TypeString),
				col("fantasy_role", models.TypeInt),
				col("team_id", models.TypeInt),
				col("team_name", models.TypeString),
				col("team_tag", models.TypeString),
				col("is_locked", models.TypeBool),
				col("is_pro", models.TypeBool),
				col("locked_until", models.TypeInt),
			},
		},
		{
			Name:        "lobby_types",
			Path:        "/constants/lobby_type",
			Strategy:    models.StrategyKeyValue,
			Columns:     []models.Column{required("lobby_id", models.TypeInt), col("name", models.TypeString)},
			KeyColumn:   "lobby_id",
			ValueColumn: "name",
			ValueField:  "name",
		},
		{
			Name:        "game_modes",
			Path:        "/constants/game_mode",
			Strategy:    models.StrategyKeyValue,
			Columns:     []models.Column{required("mode_id", models.TypeInt), col("name", models.TypeString)},
			KeyColumn:   "mode_id",
			ValueColumn: "name",
			ValueField:  "name",
		},
		{
			Name:        "clusters",
			Path:        "/constants/cluster",
			Strategy:    models.StrategyKeyValue,
			Columns:     []models.Column{required("cluster_id", models.TypeInt), col("region", models.TypeInt)},
			KeyColumn:   "cluster_id",
			ValueColumn: "region",
		},
		{
			Name:     "item_timings",
			Path:     "/scenarios/itemTimings",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("hero_id", models.TypeInt),
				col("item", models.TypeString),
				col("time", models.TypeInt),
				col("games", models.TypeInt),
				col("wins", models.TypeInt),
			},
		},
		{
			Name:     "lane_roles",
			Path:     "/scenarios/laneRoles",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("hero_id", models.TypeInt),
				col("lane_role", models.TypeInt),
				col("time", models.TypeInt),
				col("games", models.TypeInt),
				col("wins", models.TypeInt),
			},
		},
		{
			Name:     "misc_scenarios",
			Path:     "/scenarios/misc",
			Strategy: models.StrategyRecords,
			Columns: []models.Column{
				required("scenario", models.TypeString),
				col("is_radiant", models.TypeBool),
				col("region", models.TypeInt),
				col("games", models.TypeInt),
				col("wins", models.TypeInt),
			},
		},
		{
			Name:        "match_timeline",
			Path:        "/matches/{match_id}",
			Strategy:    models.StrategyTimeline,
			MatchScoped: true,
			Columns: []models.Column{
				required("match_id", models.TypeInt),
				required("time", models.TypeInt),
				required("type", models.TypeString),
				col("team", models.TypeInt),
				col("slot", models.TypeInt),
				col("player_slot", models.TypeInt),
				col("key", models.TypeString),
				col("unit", models.TypeString),
				col("value", models.TypeInt),
			},
		},
		{
			Name:        "match_players",
			Path:        "/matches/{match_id}",
			Strategy:    models.StrategyMatchPlayers,
			MatchScoped: true,
			Columns: []models.Column{
				required("match_id", models.TypeInt),
				required("player_slot", models.TypeInt),
				col("account_id", models.TypeInt),
				col("hero_id", models.TypeInt),
				col("personaname", models.TypeString),
				col("isRadiant", models.TypeBool),
				col("win", models.TypeInt),
				col("kills", models.TypeInt),
				col("deaths", models.TypeInt),
				col("assists", models.TypeInt),
				col("last_hits", models.TypeInt),
				col("denies", models.TypeInt),
				col("gold_per_min", models.TypeInt),
				col("xp_per_min", models.TypeInt),
				col("hero_damage", models.TypeInt),
				col("tower_damage", models.TypeInt),
				col("hero_healing", models.TypeInt),
				col("level", models.TypeInt),
				col("net_worth", models.TypeInt),
			},
		},
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ExpandEndpoints selects endpoints by name (all when names is empty) and
// turns every match-scoped endpoint into one concrete endpoint per match id.
// Repeated names and match ids are collapsed. Match-scoped endpoints are
// dropped when no match ids are given.
func ExpandEndpoints(catalog []models.Endpoint, names []string, matchIDs []string) ([]models.Endpoint, error) {
	selected := catalog
	if len(names) > 0 {
		byName := make(map[string]models.Endpoint, len(catalog))
		for _, ep := range catalog {
			byName[ep.Name] = ep
		}
		selected = make([]models.Endpoint, 0, len(names))
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			ep, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown endpoint %q", name)
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			selected = append(selected, ep)
		}
	}
	matchIDs = uniqueStrings(matchIDs)

	var out []models.Endpoint
	for _, ep := range selected {
		if !ep.MatchScoped {
			out = append(out, ep)
			continue
		}
		for _, id := range matchIDs {
			if _, err := strconv.ParseInt(id, 10, 64); err != nil {
				return nil, fmt.Errorf("invalid match id %q", id)
			}
			concrete := ep
			concrete.Name = ep.Name + "_" + id
			concrete.MatchScoped = false
			concrete.PathParams = map[string]string{"match_id": id}
			for k, v := range ep.PathParams {
				if k != "match_id" {
					concrete.PathParams[k] = v
				}
			}
			out = append(out, concrete)
		}
	}
	return out, nil
}
