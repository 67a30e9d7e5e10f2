package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	p := write(t, "cfg.yaml", `
base_dir: /game
materials_dir: mats
skin_family: 2
binary: true
meters: true
suffixes:
  strips: .sw.vtx
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseDir != "/game" || cfg.MaterialsDir != "mats" || cfg.SkinFamily != 2 || !cfg.Binary || !cfg.Meters {
		t.Errorf("config %+v", cfg)
	}
	if cfg.Suffixes.Strips != ".sw.vtx" {
		t.Errorf("suffixes %+v", cfg.Suffixes)
	}
}

func TestLoadTOML(t *testing.T) {
	p := write(t, "cfg.toml", `
models_dir = "/m"
workers = 3
log_level = "debug"

[suffixes]
header = ".mdl"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModelsDir != "/m" || cfg.Workers != 3 || cfg.LogLevel != "debug" || cfg.Suffixes.Header != ".mdl" {
		t.Errorf("config %+v", cfg)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	if _, err := Load(write(t, "cfg.yaml", "render_size: 256\n")); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := Load(write(t, "cfg.json", "{}")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg := Config{BaseDir: "/game", MaterialsDir: "mats", SkinFamily: 1}
	cfg.Resolve(Flags{OutputDir: "/out", SkinFamily: -1})

	if cfg.ModelsDir != filepath.Join("/game", "models") || cfg.MaterialsDir != filepath.Join("/game", "mats") {
		t.Errorf("dirs %q %q", cfg.ModelsDir, cfg.MaterialsDir)
	}
	if cfg.OutputDir != "/out" || cfg.SkinFamily != 1 {
		t.Errorf("output %q skin %d", cfg.OutputDir, cfg.SkinFamily)
	}
	if cfg.Suffixes.Strips != ".dx90.vtx" || cfg.Workers <= 0 || cfg.LogLevel != "info" {
		t.Errorf("defaults %+v", cfg)
	}
	enc, err := cfg.Encoding()
	if err != nil || enc != charmap.Windows1252 {
		t.Errorf("encoding %v, %v", enc, err)
	}
}

func TestResolveFlagsOverride(t *testing.T) {
	cfg := Config{Workers: 2, SkinFamily: 1}
	cfg.Resolve(Flags{Workers: 8, SkinFamily: 0, LogLevel: "warn"})
	if cfg.Workers != 8 || cfg.SkinFamily != 0 || cfg.LogLevel != "warn" {
		t.Errorf("config %+v", cfg)
	}
}

func TestLookupEncoding(t *testing.T) {
	if _, err := LookupEncoding("no such charset"); err == nil {
		t.Error("expected error")
	}
	if cm, err := LookupEncoding("iso 8859-1"); err != nil || cm != charmap.ISO8859_1 {
		t.Errorf("got %v, %v", cm, err)
	}
	if len(ListEncodings()) == 0 {
		t.Error("no encodings listed")
	}
}
