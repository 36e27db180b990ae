package config_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"concord/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default("proj-1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Project.ID != "proj-1" {
		t.Fatalf("got project id %q", cfg.Project.ID)
	}
	if cfg.Resolution.ResolutionTimeout.Std() != 72*time.Hour {
		t.Fatalf("got timeout %s, want 72h", cfg.Resolution.ResolutionTimeout)
	}
	if cfg.Detection.OverlapThreshold != 0.1 || cfg.Resolution.MinimumVoterCount != 3 {
		t.Fatalf("default thresholds wrong: %+v", cfg)
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault("proj-2")))
	if err != nil {
		t.Fatalf("generated default must parse: %v", err)
	}
	if cfg.Project.ID != "proj-2" {
		t.Fatalf("got project id %q", cfg.Project.ID)
	}
}

func TestFromYAMLDurationParsing(t *testing.T) {
	raw := strings.Replace(config.GenerateDefault("proj-1"), "resolution_timeout: 72h", "resolution_timeout: 90m", 1)
	cfg, err := config.FromYAML([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Resolution.ResolutionTimeout.Std() != 90*time.Minute {
		t.Fatalf("got %s, want 90m", cfg.Resolution.ResolutionTimeout)
	}

	raw = strings.Replace(config.GenerateDefault("proj-1"), "resolution_timeout: 72h", "resolution_timeout: soon", 1)
	if _, err := config.FromYAML([]byte(raw)); err == nil {
		t.Fatalf("expected an invalid duration to fail")
	}
}

func TestDurationJSON(t *testing.T) {
	data, err := json.Marshal(config.Duration(36 * time.Hour))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"36h0m0s"` {
		t.Fatalf("got %s", data)
	}
	var d config.Duration
	if err := json.Unmarshal([]byte(`"15m"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Std() != 15*time.Minute {
		t.Fatalf("got %s, want 15m", d)
	}
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing project id", func(c *config.Config) { c.Project.ID = "" }},
		{"overlap threshold above 1", func(c *config.Config) { c.Detection.OverlapThreshold = 1.5 }},
		{"negative confidence threshold", func(c *config.Config) { c.Detection.ConfidenceThreshold = -0.1 }},
		{"zero proximity window", func(c *config.Config) { c.Detection.ProximityWindow = 0 }},
		{"zero voting threshold", func(c *config.Config) { c.Resolution.VotingThreshold = 0 }},
		{"zero voters", func(c *config.Config) { c.Resolution.MinimumVoterCount = 0 }},
		{"zero timeout", func(c *config.Config) { c.Resolution.ResolutionTimeout = 0 }},
		{"zero attempts", func(c *config.Config) { c.Resolution.MaxResolutionAttempts = 0 }},
		{"zero bootstrap iterations", func(c *config.Config) { c.Agreement.BootstrapIterations = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default("proj-1")
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation failure")
			}
		})
	}
}
