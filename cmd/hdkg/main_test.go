package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/hdkg/internal/config"
	"github.com/hyperjump/hdkg/internal/engine"
	"github.com/hyperjump/hdkg/internal/models"
	"github.com/hyperjump/hdkg/internal/vector"
)

// run executes the root command and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, `
data_dir: "state"
server:
  host: "127.0.0.1"
  port: 9000
`)
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if want := filepath.Join(dir, "state"); cfg.DataDir != want {
		t.Errorf("data_dir = %s, want %s", cfg.DataDir, want)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, "debug: true\n")
	t.Chdir(dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// cwd may be reported through a symlink (macOS /private/var).
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_missingDefaultUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists")
	}
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty", resolved)
	}
	if cfg.Engine.IndexType != "hnsw" || cfg.Server.Port != 8200 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_missingExplicitPathFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config")
	}
}

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		name        string
		list        string
		wantSeeds   []uint64
		wantInvalid int
		wantErr     bool
	}{
		{"zero and garbage", "0,abc", nil, 2, true},
		{"empty", "", nil, 0, true},
		{"mixed", "1, x ,3", []uint64{1, 3}, 1, false},
		{"prefixed", "sym:7", []uint64{7}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, invalid, err := parseSeeds(tt.list, 5)
			if len(invalid) != tt.wantInvalid {
				t.Errorf("invalid = %v", invalid)
			}
			if tt.wantErr {
				if !errors.Is(err, errNoSeeds) {
					t.Fatalf("err = %v, want %v", err, errNoSeeds)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(req.Seeds) != len(tt.wantSeeds) {
				t.Fatalf("seeds = %v, want %v", req.Seeds, tt.wantSeeds)
			}
			for i := range req.Seeds {
				if req.Seeds[i] != tt.wantSeeds[i] {
					t.Errorf("seeds = %v, want %v", req.Seeds, tt.wantSeeds)
				}
			}
			if req.TopK != 5 {
				t.Errorf("top_k = %d", req.TopK)
			}
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = "/tmp/x"
	cfg.Engine.Dimension = 8000

	got := engineConfig(cfg, 0)
	if got.Dimension != 8000 || got.DataDir != "/tmp/x" || got.IndexType != "hnsw" || got.HNSW.M != 16 {
		t.Errorf("engineConfig = %+v", got)
	}
	if got.HNSW.Seed != vector.DefaultHNSWConfig().Seed {
		t.Errorf("hnsw seed = %#x, want the default", got.HNSW.Seed)
	}
	if got := engineConfig(cfg, 10000); got.Dimension != 10000 {
		t.Errorf("flag dimension not applied: %d", got.Dimension)
	}
}

func TestQuery_NoValidSeedsFailsBeforeOpeningEngine(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "state")
	_, err := run(t, "query", "--seeds", "0,abc", "--data-dir", dataDir)
	if !errors.Is(err, errNoSeeds) {
		t.Fatalf("err = %v, want %v", err, errNoSeeds)
	}
	if err.Error() != "no valid seed symbol IDs provided" {
		t.Errorf("message = %q", err)
	}
	if _, statErr := os.Stat(dataDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("data dir should not have been created: %v", statErr)
	}
}

func TestInitIngestQueryInfo(t *testing.T) {
	t.Chdir(t.TempDir())
	dataDir := filepath.Join(t.TempDir(), "state")

	out, err := run(t, "init", "--data-dir", dataDir, "--dimension", "1000")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "with dimension 1000") || !strings.Contains(out, "triples:      0") {
		t.Errorf("init output:\n%s", out)
	}

	triples := filepath.Join(t.TempDir(), "facts.json")
	writeFile(t, triples, `[{"s":1,"p":2,"o":3},{"s":1,"p":2,"o":4},{"s":0,"p":2,"o":3}]`)
	out, err = run(t, "ingest", "--data-dir", dataDir, "--file", triples)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(out, "Ingested 2 triples (0 duplicate, 1 skipped)") {
		t.Errorf("ingest output:\n%s", out)
	}

	// Re-ingesting the same file adds nothing.
	out, err = run(t, "ingest", "--data-dir", dataDir, "--file", triples)
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if !strings.Contains(out, "Ingested 0 triples (2 duplicate, 1 skipped)") {
		t.Errorf("re-ingest output:\n%s", out)
	}

	out, err = run(t, "query", "--data-dir", dataDir, "--seeds", "3", "--top-k", "3", "--output", "json")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var resp models.SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("query output is not JSON: %v\n%s", err, out)
	}
	if len(resp.Results) == 0 || resp.Results[0].Symbol != 3 {
		t.Fatalf("expected symbol 3 first, got %+v", resp.Results)
	}
	for _, r := range resp.Results {
		if r.Symbol == 5 {
			t.Error("symbol 5 never appeared in a triple and must not be ranked")
		}
	}

	out, err = run(t, "info", "--data-dir", dataDir, "--output", "json")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var info engine.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("info output is not JSON: %v\n%s", err, out)
	}
	if info.Dimension != 1000 || info.TripleCount != 2 || info.SymbolCount != 4 || !info.Persistent {
		t.Errorf("info = %+v", info)
	}
}

func TestIngestProse(t *testing.T) {
	t.Chdir(t.TempDir())
	dataDir := filepath.Join(t.TempDir(), "state")
	notes := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, notes, "The cat is a mammal. Paris is located in France.")

	out, err := run(t, "ingest", "--data-dir", dataDir, "--file", notes)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(out, "Ingested 2 triples") {
		t.Errorf("ingest output:\n%s", out)
	}
}

func TestIngest_requiresInput(t *testing.T) {
	if _, err := run(t, "ingest", "--data-dir", t.TempDir()); err == nil {
		t.Error("expected an error without files")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hdkg version dev\n" {
		t.Errorf("version output = %q", out)
	}
}
