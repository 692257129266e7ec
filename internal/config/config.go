// Package config provides configuration for the parc binary.
// Loads from: CLI flags > env vars > .parc/config.toml > built-in defaults.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all parc configuration, loaded from TOML + env + flags.
type Config struct {
	Vault VaultConfig `toml:"vault"`
	Index IndexConfig `toml:"index"`
}

// VaultConfig holds vault-related settings.
type VaultConfig struct {
	Path     string   `toml:"path"`
	SkipDirs []string `toml:"skip_dirs"`
}

// IndexConfig holds batch-pipeline tuning for reindexing.
type IndexConfig struct {
	FullWindow  int `toml:"full_window"`  // files parsed concurrently per full-assembly window
	IndexWindow int `toml:"index_window"` // files per index-building window
	YieldMillis int `toml:"yield_millis"` // cooperative pause between index windows
}

// DefaultConfig returns a Config with all built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			FullWindow:  50,
			IndexWindow: 20,
			YieldMillis: 15,
		},
	}
}

// LoadConfig merges all configuration sources: defaults < TOML file < env
// vars. CLI flags (VaultOverride) are handled by VaultPath().
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath := findConfigFile()
	if configPath != "" {
		meta, err := toml.DecodeFile(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
		warnUnknownKeys(meta, configPath)
	}

	if v := os.Getenv("VAULT_PATH"); v != "" {
		cfg.Vault.Path = v
	}
	if v := os.Getenv("PARC_SKIP_DIRS"); v != "" {
		for _, d := range strings.Split(v, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				cfg.Vault.SkipDirs = append(cfg.Vault.SkipDirs, d)
			}
		}
	}

	if len(cfg.Vault.SkipDirs) > 0 {
		RebuildSkipDirs(cfg.Vault.SkipDirs)
	}
	return cfg, nil
}

// findConfigFile looks for .parc/config.toml starting from vault path, then CWD.
func findConfigFile() string {
	if vp := resolveVaultForConfig(); vp != "" {
		p := filepath.Join(vp, ".parc", "config.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, ".parc", "config.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// resolveVaultForConfig resolves the vault path for config loading without
// calling VaultPath() to avoid circular dependency with config loading.
func resolveVaultForConfig() string {
	if VaultOverride != "" {
		reg := LoadRegistry()
		if resolved := reg.ResolveVault(VaultOverride); resolved != "" {
			return resolved
		}
		return VaultOverride
	}
	if v := os.Getenv("VAULT_PATH"); v != "" {
		return v
	}
	return ""
}

// ConfigFilePath returns the path where the config file should be written
// for the given vault path.
func ConfigFilePath(vaultPath string) string {
	return filepath.Join(vaultPath, ".parc", "config.toml")
}

// GenerateConfig writes a default .parc/config.toml with comments.
func GenerateConfig(vaultPath string) error {
	configPath := ConfigFilePath(vaultPath)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# parc configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Priority: CLI flags > environment variables > this file > built-in defaults\n")
	b.WriteString("# Environment variables: VAULT_PATH, PARC_SKIP_DIRS, PARC_DATA_DIR\n\n")

	b.WriteString("[vault]\n")
	if vaultPath != "" {
		b.WriteString(fmt.Sprintf("path = %q\n", vaultPath))
	} else {
		b.WriteString("# path = \"/path/to/your/vault\"  # auto-detected if unset\n")
	}
	b.WriteString("# skip_dirs = [\".venv\", \"build\"]  # added to built-in exclusions\n\n")

	b.WriteString("[index]\n")
	b.WriteString("full_window = 50\n")
	b.WriteString("index_window = 20\n")
	b.WriteString("yield_millis = 15\n")

	return os.WriteFile(configPath, []byte(b.String()), 0o600)
}

// ShowConfig returns the current effective configuration as TOML.
func ShowConfig() string {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Sprintf("# Error loading config: %v\n", err)
	}
	if cfg.Vault.Path == "" {
		cfg.Vault.Path = VaultPath()
	}

	var b strings.Builder
	b.WriteString("# Effective parc configuration (merged from all sources)\n\n")
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Encode(cfg)
	b.Write(buf.Bytes())
	return b.String()
}

// IndexSettings returns the batch-pipeline tuning, falling back to defaults
// for unset or nonsense values.
func IndexSettings() IndexConfig {
	def := DefaultConfig().Index
	cfg := loadConfigSafe()
	if cfg == nil {
		return def
	}
	ic := cfg.Index
	if ic.FullWindow <= 0 {
		ic.FullWindow = def.FullWindow
	}
	if ic.IndexWindow <= 0 {
		ic.IndexWindow = def.IndexWindow
	}
	if ic.YieldMillis < 0 {
		ic.YieldMillis = def.YieldMillis
	}
	return ic
}

// loadConfigSafe loads config without risking recursion. Returns nil on error.
func loadConfigSafe() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		return nil
	}
	return cfg
}

// ConfigWarning returns any config file parse error, or empty string if OK.
func ConfigWarning() string {
	if _, err := LoadConfig(); err != nil {
		return err.Error()
	}
	return ""
}

// FindConfigFile returns the path to the active config file, or empty string if none found.
func FindConfigFile() string {
	return findConfigFile()
}

// configSuggestions maps common wrong keys to the correct TOML key name.
var configSuggestions = map[string]string{
	"exclude_paths": "skip_dirs",
	"exclude_dirs":  "skip_dirs",
	"skip_paths":    "skip_dirs",
	"ignored_dirs":  "skip_dirs",
	"ignore_dirs":   "skip_dirs",
	"excludes":      "skip_dirs",
	"window":        "full_window",
	"batch_size":    "full_window",
	"yield":         "yield_millis",
	"yield_ms":      "yield_millis",
}

// warnUnknownKeys prints warnings for unrecognized config keys.
func warnUnknownKeys(meta toml.MetaData, configPath string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}

	fname := filepath.Base(configPath)
	for _, key := range undecoded {
		keyStr := key.String()
		lastPart := key[len(key)-1]

		if suggestion, ok := configSuggestions[lastPart]; ok {
			fmt.Fprintf(os.Stderr, "parc: WARNING: unknown key %q in %s — did you mean %q?\n",
				keyStr, fname, suggestion)
		} else {
			fmt.Fprintf(os.Stderr, "parc: WARNING: unknown key %q in %s (will be ignored)\n",
				keyStr, fname)
		}
	}
}

// defaultSkipDirs are directories to skip during vault walks.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".obsidian":    true,
	".logseq":      true,
	".parc":        true,
	".claude":      true,
	".trash":       true,
}

// SkipFiles are filenames excluded from parsing (meta-docs, not posts).
var SkipFiles = map[string]bool{
	"CLAUDE.md": true,
}

// SkipDirs returns the set of directories to skip during vault walks.
var SkipDirs = buildSkipDirs()

func buildSkipDirs() map[string]bool {
	dirs := make(map[string]bool)
	for k, v := range defaultSkipDirs {
		dirs[k] = v
	}
	if extra := os.Getenv("PARC_SKIP_DIRS"); extra != "" {
		for _, d := range strings.Split(extra, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				dirs[d] = true
			}
		}
	}
	return dirs
}

// RebuildSkipDirs rebuilds the SkipDirs map, incorporating config file settings.
// Should be called after config is loaded if skip_dirs is set in TOML.
func RebuildSkipDirs(extra []string) {
	dirs := buildSkipDirs()
	for _, d := range extra {
		d = strings.TrimSpace(d)
		if d != "" {
			dirs[d] = true
		}
	}
	SkipDirs = dirs
}

// VaultPath returns the vault root directory.
// Validates the path is a reasonable vault root (not / or other dangerous
// top-level paths that would cause the indexer to walk the entire filesystem).
func VaultPath() string {
	var path string
	// CLI flag always has highest priority.
	if VaultOverride != "" {
		reg := LoadRegistry()
		if resolved := reg.ResolveVault(VaultOverride); resolved != "" {
			path = resolved
		} else {
			path = VaultOverride
		}
	} else if v := os.Getenv("VAULT_PATH"); v != "" {
		path = v
	} else if cfg := loadConfigSafe(); cfg != nil && cfg.Vault.Path != "" {
		path = cfg.Vault.Path
	} else {
		path = defaultVaultPath()
	}
	if path != "" {
		path = validateVaultPath(path)
	}
	return path
}

// validateVaultPath rejects vault paths that are too broad (e.g., /, /home,
// /Users) and resolves symlinks to prevent symlink-based escapes.
func validateVaultPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	dangerous := []string{"/", "/home", "/Users", "/tmp", "/var", "/etc", "/opt"}
	if runtime.GOOS == "windows" && len(abs) >= 3 {
		for _, letter := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
			dangerous = append(dangerous, string(letter)+":\\")
		}
		driveRoot := abs[:3]
		dangerous = append(dangerous, filepath.Join(driveRoot, "Users"), filepath.Join(driveRoot, "Windows"))
	}
	for _, d := range dangerous {
		if abs == d {
			fmt.Fprintf(os.Stderr, "WARNING: VAULT_PATH=%q is too broad, ignoring.\n", abs)
			return ""
		}
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Path may not exist yet; skip symlink check
		return path
	}
	for _, d := range dangerous {
		if resolved == d {
			fmt.Fprintf(os.Stderr, "WARNING: VAULT_PATH=%q resolves to %q which is too broad, ignoring.\n", abs, resolved)
			return ""
		}
		if resolvedDangerous, err := filepath.EvalSymlinks(d); err == nil && resolved == resolvedDangerous {
			fmt.Fprintf(os.Stderr, "WARNING: VAULT_PATH=%q resolves to %q which is too broad, ignoring.\n", abs, resolved)
			return ""
		}
	}
	return path
}

// SafeVaultSubpath resolves a relative path within the vault and validates
// that the result stays inside the vault root. Returns the absolute path and
// true if valid, or empty string and false if the path escapes the vault.
func SafeVaultSubpath(relativePath string) (string, bool) {
	vaultRoot := VaultPath()
	if vaultRoot == "" {
		return "", false
	}
	absVault, err := filepath.Abs(vaultRoot)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(filepath.Join(vaultRoot, filepath.FromSlash(relativePath)))
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(absPath, absVault+string(filepath.Separator)) && absPath != absVault {
		return "", false
	}
	return absPath, true
}

// Sentinel errors for consistent messaging across commands.
var (
	// ErrNoVault is returned when no vault path can be resolved.
	ErrNoVault = fmt.Errorf("no vault found — run 'parc vault add' or set VAULT_PATH")
	// ErrNoDatabase is returned when the post index cannot be opened.
	ErrNoDatabase = fmt.Errorf("cannot open post index — run 'parc reindex' or 'parc doctor' to diagnose")
)

// DBPath returns the path to the SQLite post index file.
func DBPath() string {
	return filepath.Join(DataDir(), "posts.db")
}

// DataDir returns the data directory for the parc binary.
// Validates PARC_DATA_DIR is an existing, writable directory.
func DataDir() string {
	if v := os.Getenv("PARC_DATA_DIR"); v != "" {
		return validateDataDir(v)
	}
	return filepath.Join(VaultPath(), ".parc", "data")
}

// validateDataDir checks that the given path is a valid directory (or can be
// created). Falls back to the default data dir if the path is invalid.
func validateDataDir(dir string) string {
	fallback := func() string { return filepath.Join(VaultPath(), ".parc", "data") }

	abs, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: PARC_DATA_DIR=%q is not a valid path, using default.\n", dir)
		return fallback()
	}

	info, err := os.Stat(abs)
	if err == nil {
		if !info.IsDir() {
			fmt.Fprintf(os.Stderr, "WARNING: PARC_DATA_DIR=%q is not a directory, using default.\n", abs)
			return fallback()
		}
		testFile := filepath.Join(abs, ".parc_write_test")
		f, err := os.Create(testFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: PARC_DATA_DIR=%q is not writable, using default.\n", abs)
			return fallback()
		}
		f.Close()
		os.Remove(testFile)
		return abs
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: PARC_DATA_DIR=%q cannot be created (%v), using default.\n", abs, err)
		return fallback()
	}
	return abs
}

// VaultRegistry holds registered vault paths with aliases.
type VaultRegistry struct {
	Vaults  map[string]string `json:"vaults"`  // alias -> path
	Default string            `json:"default"` // alias of default vault
}

// RegistryPath returns the path to the vault registry file.
func RegistryPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "parc", "vaults.json")
}

// LoadRegistry loads or creates the vault registry.
func LoadRegistry() *VaultRegistry {
	data, err := os.ReadFile(RegistryPath())
	if err != nil {
		return &VaultRegistry{Vaults: make(map[string]string)}
	}
	var reg VaultRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return &VaultRegistry{Vaults: make(map[string]string)}
	}
	if reg.Vaults == nil {
		reg.Vaults = make(map[string]string)
	}
	return &reg
}

// Save writes the registry to disk. Uses a lockfile to prevent races when
// multiple processes read and write vaults.json concurrently.
func (r *VaultRegistry) Save() error {
	path := RegistryPath()
	os.MkdirAll(filepath.Dir(path), 0o755)

	lockPath := path + ".lock"
	unlock, err := acquireFileLock(lockPath)
	if err != nil {
		// If locking fails, proceed without it (best effort)
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o600)
	}
	defer unlock()

	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// acquireFileLock creates a lockfile using O_EXCL for atomic creation.
// Returns a cleanup function and nil on success, or an error if the lock
// cannot be acquired within a timeout.
func acquireFileLock(lockPath string) (func(), error) {
	const maxRetries = 20
	const retryDelay = 50 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		// Stale lock (older than 10 seconds)
		if info, statErr := os.Stat(lockPath); statErr == nil {
			if time.Since(info.ModTime()) > 10*time.Second {
				os.Remove(lockPath)
				continue
			}
		}
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("could not acquire lock on %s", lockPath)
}

// ResolveVault resolves a vault alias to a path. Returns empty string if not found.
func (r *VaultRegistry) ResolveVault(alias string) string {
	if p, ok := r.Vaults[alias]; ok {
		return p
	}
	// Maybe it's already a path
	if info, err := os.Stat(alias); err == nil && info.IsDir() {
		return alias
	}
	return ""
}

// VaultOverride is set by the --vault global flag.
var VaultOverride string

// VaultMarkers are dotfiles/directories that indicate a vault root.
// Checked in priority order: parc's own marker first, then common tools.
var VaultMarkers = []string{".parc", ".obsidian", ".logseq", ".foam", ".dendron"}

func defaultVaultPath() string {
	if VaultOverride != "" {
		reg := LoadRegistry()
		if resolved := reg.ResolveVault(VaultOverride); resolved != "" {
			return resolved
		}
		return VaultOverride
	}

	// Auto-detect: check CWD for any known marker (before registry default)
	if cwd, err := os.Getwd(); err == nil {
		for _, marker := range VaultMarkers {
			if _, err := os.Stat(filepath.Join(cwd, marker)); err == nil {
				return cwd
			}
		}
	}

	reg := LoadRegistry()
	if reg.Default != "" {
		if p, ok := reg.Vaults[reg.Default]; ok {
			return p
		}
	}

	// Walk up from binary location looking for any marker
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for i := 0; i < 5; i++ {
			for _, marker := range VaultMarkers {
				if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
					return dir
				}
			}
			dir = filepath.Dir(dir)
		}
	}

	// No vault found — caller shows the helpful error
	return ""
}
