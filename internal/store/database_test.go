package store

import (
	"strings"
	"testing"
)

func TestMigrationNamesAreOrdered(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i, name := range names {
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".sql") {
			t.Errorf("unexpected migration name %q", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Errorf("%s sorts before %s", names[i-1], name)
		}
	}
	if names[0] != "001_create_games.sql" {
		t.Errorf("first migration = %s", names[0])
	}
}

func TestMigrationsCreateTables(t *testing.T) {
	want := []string{"games", "stints", "stint_stats", "game_players", "play_by_play",
		"backfill_jobs", "backfill_job_events", "reconciliation_reports"}

	names, err := MigrationNames()
	if err != nil {
		t.Fatal(err)
	}
	var all strings.Builder
	for _, n := range names {
		data, err := migrationFiles.ReadFile("migrations/" + n)
		if err != nil {
			t.Fatal(err)
		}
		all.Write(data)
	}
	for _, table := range want {
		if !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("no migration creates %s", table)
		}
	}
}
