package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/gkjohnson/source-engine-model-loader/internal/loader"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	BaseDir      string `yaml:"base_dir" toml:"base_dir"`
	ModelsDir    string `yaml:"models_dir" toml:"models_dir"`
	MaterialsDir string `yaml:"materials_dir" toml:"materials_dir"`
	OutputDir    string `yaml:"output_dir" toml:"output_dir"`

	// Decode settings
	StringEncoding string          `yaml:"string_encoding" toml:"string_encoding"`
	Suffixes       loader.Suffixes `yaml:"suffixes" toml:"suffixes"`
	SkinFamily     int             `yaml:"skin_family" toml:"skin_family"`

	// Output settings
	Binary        bool `yaml:"binary" toml:"binary"`
	EmbedTextures bool `yaml:"embed_textures" toml:"embed_textures"`
	YUp           bool `yaml:"y_up" toml:"y_up"`
	Meters        bool `yaml:"meters" toml:"meters"`
	Workers       int  `yaml:"workers" toml:"workers"`

	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// Load reads a YAML or TOML config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		return Config{}, errors.Errorf("config: unsupported format %q", ext)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir      string
	ModelsDir    string
	MaterialsDir string
	OutputDir    string
	Workers      int
	LogLevel     string
	// SkinFamily overrides the file when non-negative.
	SkinFamily int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.ModelsDir != "" {
		c.ModelsDir = flags.ModelsDir
	}
	if flags.MaterialsDir != "" {
		c.MaterialsDir = flags.MaterialsDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.SkinFamily >= 0 {
		c.SkinFamily = flags.SkinFamily
	}

	// Resolve paths against the game content root
	c.ModelsDir = c.under(c.ModelsDir, "models")
	c.MaterialsDir = c.under(c.MaterialsDir, "materials")
	c.OutputDir = c.under(c.OutputDir, "gltf")

	if c.StringEncoding == "" {
		c.StringEncoding = charmap.Windows1252.String()
	}
	if c.Suffixes.Header == "" {
		c.Suffixes.Header = loader.DefaultSuffixes.Header
	}
	if c.Suffixes.Vertices == "" {
		c.Suffixes.Vertices = loader.DefaultSuffixes.Vertices
	}
	if c.Suffixes.Strips == "" {
		c.Suffixes.Strips = loader.DefaultSuffixes.Strips
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *Config) under(p, def string) string {
	switch {
	case p == "" && c.BaseDir != "":
		return filepath.Join(c.BaseDir, def)
	case p != "" && c.BaseDir != "" && !filepath.IsAbs(p):
		return filepath.Join(c.BaseDir, p)
	}
	return p
}

// Encoding returns the charmap named by StringEncoding.
func (c *Config) Encoding() (*charmap.Charmap, error) {
	return LookupEncoding(c.StringEncoding)
}

// LookupEncoding finds a single-byte charmap by name, e.g. "Windows 1252".
func LookupEncoding(name string) (*charmap.Charmap, error) {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && strings.EqualFold(cm.String(), name) {
			return cm, nil
		}
	}
	return nil, errors.Errorf("config: unknown encoding %q", name)
}

// ListEncodings returns the names accepted by LookupEncoding.
func ListEncodings() []string {
	var list []string
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}
