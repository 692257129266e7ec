package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeVaultConfig(t *testing.T, vaultPath, body string) {
	t.Helper()
	dir := filepath.Join(vaultPath, ".parc")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func resetGlobals(t *testing.T) {
	t.Helper()
	oldSkip := SkipDirs
	oldOverride := VaultOverride
	t.Cleanup(func() {
		SkipDirs = oldSkip
		VaultOverride = oldOverride
	})
	VaultOverride = ""
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Index.FullWindow != 50 || cfg.Index.IndexWindow != 20 || cfg.Index.YieldMillis != 15 {
		t.Errorf("unexpected defaults: %+v", cfg.Index)
	}
}

func TestLoadConfigFromVaultFile(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	t.Setenv("VAULT_PATH", root)
	writeVaultConfig(t, root, "[index]\nfull_window = 8\n\n[vault]\nskip_dirs = [\"drafts\"]\n")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Index.FullWindow != 8 {
		t.Errorf("full_window = %d, want 8", cfg.Index.FullWindow)
	}
	// skip_dirs from TOML folds into the global skip set
	if !SkipDirs["drafts"] {
		t.Error("drafts not added to SkipDirs")
	}
	if !SkipDirs[".obsidian"] {
		t.Error("built-in skip dirs must survive rebuild")
	}
}

func TestLoadConfigBadTOML(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	t.Setenv("VAULT_PATH", root)
	writeVaultConfig(t, root, "[index\nbroken")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
	if ConfigWarning() == "" {
		t.Error("ConfigWarning must report the parse error")
	}
}

func TestIndexSettingsFallsBackOnNonsense(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	t.Setenv("VAULT_PATH", root)
	writeVaultConfig(t, root, "[index]\nfull_window = -1\nindex_window = 0\nyield_millis = -5\n")

	ic := IndexSettings()
	if ic.FullWindow != 50 || ic.IndexWindow != 20 || ic.YieldMillis != 15 {
		t.Errorf("fallback not applied: %+v", ic)
	}
}

func TestVaultPathEnv(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	t.Setenv("VAULT_PATH", root)

	if got := VaultPath(); got != root {
		t.Errorf("VaultPath = %q, want %q", got, root)
	}
}

func TestVaultPathRejectsBroadRoots(t *testing.T) {
	resetGlobals(t)
	for _, dangerous := range []string{"/", "/home", "/etc"} {
		t.Setenv("VAULT_PATH", dangerous)
		if got := VaultPath(); got != "" {
			t.Errorf("VaultPath(%q) = %q, want empty", dangerous, got)
		}
	}
}

func TestSafeVaultSubpath(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	t.Setenv("VAULT_PATH", root)

	abs, ok := SafeVaultSubpath("Posts/a.md")
	if !ok {
		t.Fatal("expected valid subpath")
	}
	if !strings.HasPrefix(abs, root) {
		t.Errorf("abs = %q not under vault", abs)
	}

	if _, ok := SafeVaultSubpath("../../etc/passwd"); ok {
		t.Error("traversal must be rejected")
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	t.Setenv("PARC_DATA_DIR", dir)

	if got := DataDir(); got != dir {
		t.Errorf("DataDir = %q, want %q", got, dir)
	}
	if got := DBPath(); got != filepath.Join(dir, "posts.db") {
		t.Errorf("DBPath = %q", got)
	}
}

func TestDataDirRejectsFilePath(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	t.Setenv("VAULT_PATH", root)

	notADir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notADir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PARC_DATA_DIR", notADir)

	want := filepath.Join(root, ".parc", "data")
	if got := DataDir(); got != want {
		t.Errorf("DataDir = %q, want fallback %q", got, want)
	}
}

func TestRegistryRoundtrip(t *testing.T) {
	resetGlobals(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	vaultDir := t.TempDir()
	reg := LoadRegistry()
	reg.Vaults["work"] = vaultDir
	reg.Default = "work"
	if err := reg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := LoadRegistry()
	if loaded.Vaults["work"] != vaultDir {
		t.Errorf("vaults = %+v", loaded.Vaults)
	}
	if loaded.Default != "work" {
		t.Errorf("default = %q", loaded.Default)
	}

	// Alias resolution, then literal-path fallback
	if got := loaded.ResolveVault("work"); got != vaultDir {
		t.Errorf("ResolveVault(alias) = %q", got)
	}
	if got := loaded.ResolveVault(vaultDir); got != vaultDir {
		t.Errorf("ResolveVault(path) = %q", got)
	}
	if got := loaded.ResolveVault("nope"); got != "" {
		t.Errorf("ResolveVault(missing) = %q", got)
	}
}

func TestVaultOverrideResolvesAlias(t *testing.T) {
	resetGlobals(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VAULT_PATH", "")

	vaultDir := t.TempDir()
	reg := LoadRegistry()
	reg.Vaults["notes"] = vaultDir
	if err := reg.Save(); err != nil {
		t.Fatal(err)
	}

	VaultOverride = "notes"
	if got := VaultPath(); got != vaultDir {
		t.Errorf("VaultPath = %q, want %q", got, vaultDir)
	}
}

func TestGenerateConfig(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	if err := GenerateConfig(root); err != nil {
		t.Fatalf("GenerateConfig: %v", err)
	}
	data, err := os.ReadFile(ConfigFilePath(root))
	if err != nil {
		t.Fatalf("read generated config: %v", err)
	}
	if !strings.Contains(string(data), "[index]") {
		t.Errorf("generated config missing [index]: %s", data)
	}
}
