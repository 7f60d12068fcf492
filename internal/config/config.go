// Package config loads the typing CLI configuration and type spec files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/typing/pkg/typing"
	"github.com/calvinalkan/typing/pkg/vault"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrVaultDirEmpty      = errors.New("vault_dir cannot be empty")
	ErrTypesFileEmpty     = errors.New("types_file cannot be empty")
	ErrTypesFileInvalid   = errors.New("types_file must be a path inside the vault")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	VaultDir    string `json:"vault_dir"`
	TypesFile   string `json:"types_file"`
	DefaultType string `json:"default_type"`
	TypeMarker  string `json:"type_marker"`
	IndexPath   string `json:"index_path"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	VaultDirAbs  string `json:"-"` // Absolute path to the vault
	IndexPathAbs string `json:"-"` // Absolute path to the sqlite index, empty when disabled

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		VaultDir:   ".",
		TypesFile:  "typing.json",
		TypeMarker: typing.DefaultTypeMarker,
	}
}

// FileName is the default project config file name.
const FileName = ".typing.json"

// WorkspaceTypeMarker maps the configured marker onto [typing.Config]
// semantics, where "-" disables marker resolution.
func (c Config) WorkspaceTypeMarker() string {
	if c.TypeMarker == "" {
		return "-"
	}

	return c.TypeMarker
}

// globalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/typing/config.json if set, otherwise ~/.config/typing/config.json.
// Returns empty string if home directory cannot be determined.
func globalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "typing", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "typing", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath       string            // -c/--config flag value
	VaultDirOverride string            // --vault flag value; empty means no override
	Env              map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/typing/config.json)
// 3. Project config file at default location (.typing.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
//
// A key present in a file overrides lower layers even when its value is
// empty, so "type_marker": "" disables marker resolution. The sqlite index
// is off unless index_path is set.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
	}

	cfg := Default()

	if p := globalPath(input.Env); p != "" {
		l, loaded, err := loadFile(p, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = l.mergeInto(cfg)
			cfg.Sources.Global = p
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false
	if input.ConfigPath != "" {
		projectPath, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	l, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = l.mergeInto(cfg)
		cfg.Sources.Project = projectPath
	}

	if input.VaultDirOverride != "" {
		cfg.VaultDir = input.VaultDirOverride
	}

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.VaultDirAbs = absFrom(workDir, cfg.VaultDir)

	if cfg.IndexPath != "" {
		cfg.IndexPathAbs = absFrom(cfg.VaultDirAbs, cfg.IndexPath)
	}

	return cfg, nil
}

func absFrom(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(base, p)
}

// layer is one parsed config file and the keys it sets.
type layer struct {
	cfg Config
	set map[string]bool
}

func (l layer) mergeInto(base Config) Config {
	if l.set["vault_dir"] {
		base.VaultDir = l.cfg.VaultDir
	}

	if l.set["types_file"] {
		base.TypesFile = l.cfg.TypesFile
	}

	if l.set["default_type"] {
		base.DefaultType = l.cfg.DefaultType
	}

	if l.set["type_marker"] {
		base.TypeMarker = l.cfg.TypeMarker
	}

	if l.set["index_path"] {
		base.IndexPath = l.cfg.IndexPath
	}

	return base
}

// loadFile loads a config file. If mustExist is false, a missing file is not
// an error and reports loaded == false.
func loadFile(path string, mustExist bool) (layer, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return layer{}, false, nil
		}

		if errors.Is(err, os.ErrNotExist) {
			return layer{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}

		return layer{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	l, err := parse(data)
	if err != nil {
		return layer{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return l, true, nil
}

func parse(data []byte) (layer, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return layer{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var l layer

	err = json.Unmarshal(standardized, &l.cfg)
	if err != nil {
		return layer{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]json.RawMessage

	err = json.Unmarshal(standardized, &raw)
	if err != nil {
		return layer{}, fmt.Errorf("invalid JSON: %w", err)
	}

	l.set = make(map[string]bool, len(raw))
	for k := range raw {
		l.set[k] = true
	}

	return l, nil
}

func validate(cfg Config) error {
	if cfg.VaultDir == "" {
		return ErrVaultDirEmpty
	}

	if cfg.TypesFile == "" {
		return ErrTypesFileEmpty
	}

	if _, err := vault.Clean(cfg.TypesFile); err != nil {
		return fmt.Errorf("%w: %s", ErrTypesFileInvalid, cfg.TypesFile)
	}

	return nil
}
