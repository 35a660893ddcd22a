package etl

import (
	"testing"
)

func TestDefaultCatalog_IsValid(t *testing.T) {
	catalog := DefaultCatalog(3)
	if len(catalog) != 15 {
		t.Fatalf("endpoints: got %d, want 15", len(catalog))
	}

	seen := map[string]bool{}
	for _, ep := range catalog {
		if err := ep.Check(); err != nil {
			t.Errorf("%s: %v", ep.Name, err)
		}
		if seen[ep.Name] {
			t.Errorf("duplicate endpoint %s", ep.Name)
		}
		seen[ep.Name] = true
	}

	pm := catalogEndpoint(t, "public_matches")
	if pm.Pagination == nil || pm.Pagination.CursorParam != "less_than_match_id" {
		t.Errorf("public_matches pagination: %+v", pm.Pagination)
	}
	if got := DefaultCatalog(3)[0].Pagination.Pages; got != 3 {
		t.Errorf("pages: got %d, want 3", got)
	}
}

func TestExpandEndpoints_AllWithoutMatchIDs(t *testing.T) {
	out, err := ExpandEndpoints(DefaultCatalog(1), nil, nil)
	if err != nil {
		t.Fatalf("ExpandEndpoints failed: %v", err)
	}
	if len(out) != 13 {
		t.Errorf("got %d endpoints, want 13 (match scoped dropped)", len(out))
	}
	for _, ep := range out {
		if ep.MatchScoped {
			t.Errorf("%s should have been dropped", ep.Name)
		}
	}
}

func TestExpandEndpoints_MatchScoped(t *testing.T) {
	out, err := ExpandEndpoints(DefaultCatalog(1), []string{"heroes", "match_players"}, []string{"7001", "7002"})
	if err != nil {
		t.Fatalf("ExpandEndpoints failed: %v", err)
	}

	want := []string{"heroes", "match_players_7001", "match_players_7002"}
	if len(out) != len(want) {
		t.Fatalf("got %d endpoints, want %d", len(out), len(want))
	}
	for i, name := range want {
		if out[i].Name != name {
			t.Errorf("endpoint %d: got %s, want %s", i, out[i].Name, name)
		}
	}
	if out[2].PathParams["match_id"] != "7002" {
		t.Errorf("path param: got %v", out[2].PathParams)
	}

	client := NewClient(ClientConfig{BaseURL: "http://x"})
	if u, err := client.BuildURL(out[1], nil); err != nil || u != "http://x/matches/7001" {
		t.Errorf("BuildURL: got %q, %v", u, err)
	}
}

func TestExpandEndpoints_Errors(t *testing.T) {
	if _, err := ExpandEndpoints(DefaultCatalog(1), []string{"nope"}, nil); err == nil {
		t.Error("expected error for unknown endpoint")
	}
	if _, err := ExpandEndpoints(DefaultCatalog(1), []string{"match_timeline"}, []string{"abc"}); err == nil {
		t.Error("expected error for non-numeric match id")
	}
}

func TestExpandEndpoints_CollapsesRepeats(t *testing.T) {
	out, err := ExpandEndpoints(DefaultCatalog(1), []string{"heroes", "match_players", "heroes"}, []string{"7001", "7001"})
	if err != nil {
		t.Fatalf("ExpandEndpoints failed: %v", err)
	}

	want := []string{"heroes", "match_players_7001"}
	if len(out) != len(want) {
		t.Fatalf("got %d endpoints, want %d", len(out), len(want))
	}
	for i, name := range want {
		if out[i].Name != name {
			t.Errorf("endpoint %d: got %s, want %s", i, out[i].Name, name)
		}
	}
}
