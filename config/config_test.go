package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  game_port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.GamePort != 9000 {
		t.Fatalf("game_port: got %d want 9000", cfg.Server.GamePort)
	}
	if cfg.Simulation.SpawnIntervalMs != 1500 {
		t.Fatalf("spawn_interval_ms default: got %d", cfg.Simulation.SpawnIntervalMs)
	}
	if cfg.Simulation.ExpPerLevel != 50 {
		t.Fatalf("exp_per_level default: got %d", cfg.Simulation.ExpPerLevel)
	}
	if cfg.Simulation.DefaultCharacter != "survivor" {
		t.Fatalf("default_character: got %q", cfg.Simulation.DefaultCharacter)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "simulation:\n  tick_rate: 60\n")
	t.Setenv("PIXELSTORM_SIMULATION_TICK_RATE", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.TickRate != 30 {
		t.Fatalf("tick_rate: got %d want 30", cfg.Simulation.TickRate)
	}
}

func TestLoadRejectsInvalidSimulation(t *testing.T) {
	path := writeConfig(t, "simulation:\n  spawn_interval_ms: 0\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for zero spawn interval")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}

func TestLoadEnvFileSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PIXELSTORM_TEST_ONLY_KEY=ok\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PIXELSTORM_TEST_ONLY_KEY") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("PIXELSTORM_TEST_ONLY_KEY"); got != "ok" {
		t.Fatalf("env not loaded: %q", got)
	}
}

func TestValidate(t *testing.T) {
	base := SimulationConfig{
		ArenaWidth: 800, ArenaHeight: 600, TickRate: 60, SpawnIntervalMs: 1500,
		SpawnMargin: 40, ExpPerLevel: 50, BulletLifetimeMs: 2000,
	}
	tests := []struct {
		name    string
		mutate  func(c *SimulationConfig)
		wantErr bool
	}{
		{"ok", func(c *SimulationConfig) {}, false},
		{"zero width", func(c *SimulationConfig) { c.ArenaWidth = 0 }, true},
		{"margin too large", func(c *SimulationConfig) { c.SpawnMargin = 400 }, true},
		{"negative contact cooldown", func(c *SimulationConfig) { c.ContactCooldownMs = -1 }, true},
		{"zero exp threshold", func(c *SimulationConfig) { c.ExpPerLevel = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultSimulationMatchesViperDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Simulation != DefaultSimulation() {
		t.Fatalf("defaults diverged:\nviper=%+v\nfunc =%+v", cfg.Simulation, DefaultSimulation())
	}
}
