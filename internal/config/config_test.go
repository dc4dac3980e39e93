package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("ignored.yaml", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Arb.OddsStalenessSec != 90 {
		t.Errorf("staleness = %d, want 90", cfg.Arb.OddsStalenessSec)
	}
	if cfg.Arb.MinEdge != 0.004 {
		t.Errorf("min edge = %f, want 0.004", cfg.Arb.MinEdge)
	}
	if cfg.Arb.Bank != 100 {
		t.Errorf("bank = %f, want 100", cfg.Arb.Bank)
	}
	if cfg.Scan.PageSize != 25 || cfg.Scan.MaxPages != 4 {
		t.Errorf("paging = %d/%d, want 25/4", cfg.Scan.PageSize, cfg.Scan.MaxPages)
	}
	if cfg.Scan.FutureWindow != 48*time.Hour {
		t.Errorf("future window = %v", cfg.Scan.FutureWindow)
	}
	if cfg.Scan.Deadline != 55*time.Second {
		t.Errorf("deadline = %v", cfg.Scan.Deadline)
	}
	if cfg.Kick.Stream != "arb.scan.kick" {
		t.Errorf("kick stream = %s", cfg.Kick.Stream)
	}
}

func TestLoad_FlatEnvOverrides(t *testing.T) {
	t.Setenv("ARB_ODDS_STALENESS_SEC", "120")
	t.Setenv("ARB_MIN_EDGE", "0.01")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("MAX_PAGES", "2")

	cfg, err := Load("ignored.yaml", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Arb.OddsStalenessSec != 120 {
		t.Errorf("staleness = %d, want 120", cfg.Arb.OddsStalenessSec)
	}
	if cfg.Arb.Staleness() != 120*time.Second {
		t.Errorf("staleness duration = %v", cfg.Arb.Staleness())
	}
	if cfg.Arb.MinEdge != 0.01 {
		t.Errorf("min edge = %f, want 0.01", cfg.Arb.MinEdge)
	}
	if cfg.Scan.PageSize != 10 || cfg.Scan.MaxPages != 2 {
		t.Errorf("paging = %d/%d, want 10/2", cfg.Scan.PageSize, cfg.Scan.MaxPages)
	}
}

func TestLoad_FutureWindowMs(t *testing.T) {
	t.Setenv("FUTURE_WINDOW_MS", "3600000")

	cfg, err := Load("ignored.yaml", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.FutureWindow != time.Hour {
		t.Errorf("future window = %v, want 1h", cfg.Scan.FutureWindow)
	}
}

func TestLoad_FutureWindowMsGarbageIgnored(t *testing.T) {
	t.Setenv("FUTURE_WINDOW_MS", "soon")

	cfg, err := Load("ignored.yaml", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.FutureWindow != 48*time.Hour {
		t.Errorf("future window = %v, want default", cfg.Scan.FutureWindow)
	}
}

func TestSweepSportKeys(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"basketball_nba", 1},
		{"basketball_nba, soccer_epl", 2},
		{" , basketball_nba,, ", 1},
	}
	for _, tc := range cases {
		got := CronConfig{SweepSports: tc.in}.SweepSportKeys()
		if len(got) != tc.want {
			t.Errorf("SweepSportKeys(%q) = %v, want %d entries", tc.in, got, tc.want)
		}
	}
}
