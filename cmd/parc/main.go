// Package main is the entrypoint for the parc CLI.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaultarc/postarc/internal/cli"
	"github.com/vaultarc/postarc/internal/config"
	"github.com/vaultarc/postarc/internal/indexer"
	mcpserver "github.com/vaultarc/postarc/internal/mcp"
	"github.com/vaultarc/postarc/internal/pipeline"
	"github.com/vaultarc/postarc/internal/postparse"
	"github.com/vaultarc/postarc/internal/store"
	"github.com/vaultarc/postarc/internal/vault"
	"github.com/vaultarc/postarc/internal/watcher"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "parc",
		Short: "Post Archive Companion",
		Long:  "parc — parse, index, and search archived social-media posts in a markdown vault.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(versionCmd())
	root.AddCommand(reindexCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(listCmd())
	root.AddCommand(showCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(vaultCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(mcpCmd())

	// Global --vault flag
	root.PersistentFlags().StringVar(&config.VaultOverride, "vault", "", "Vault name or path (overrides auto-detect)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the parc version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if check {
				return runVersionCheck()
			}
			fmt.Printf("parc %s\n", Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check for updates against GitHub releases")
	return cmd
}

func runVersionCheck() error {
	if Version == "dev" {
		fmt.Println("parc dev (built from source, no version check)")
		return nil
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("https://api.github.com/repos/vaultarc/postarc/releases/latest")
	if err != nil {
		// Network error — report and succeed anyway
		fmt.Printf("parc %s (update check failed: %v)\n", Version, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Printf("parc %s (no releases found)\n", Version)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("parc %s\n", Version)
		return nil
	}

	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(body, &release); err != nil {
		fmt.Printf("parc %s\n", Version)
		return nil
	}

	latestVer := strings.TrimPrefix(release.TagName, "v")
	currentVer := strings.TrimPrefix(Version, "v")

	if compareVersions(latestVer, currentVer) > 0 {
		fmt.Printf("parc %s (update available: %s — %s)\n", currentVer, latestVer, release.HTMLURL)
	} else {
		fmt.Printf("parc %s (up to date)\n", currentVer)
	}
	return nil
}

// compareVersions compares dotted version strings segment by segment,
// numerically, so "10.0" sorts after "9.0". Returns -1, 0, or 1.
// Non-numeric segments (pre-release suffixes) compare as 0.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// ---------- reindex / stats ----------

func reindexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Index vault posts into SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-parse all files regardless of changes")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runReindex(force bool) error {
	db, v, err := openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	indexer.Version = Version
	stats, err := indexer.Reindex(db, v, force)
	if err != nil {
		return err
	}

	data, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(data))
	return nil
}

func runStats() error {
	db, _, err := openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	stats := indexer.GetStats(db)
	data, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(data))
	return nil
}

// ---------- search ----------

func searchCmd() *cobra.Command {
	var (
		limit    int
		platform string
		author   string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over indexed posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(query, limit, platform, author, jsonOut)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of results")
	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")
	cmd.Flags().StringVar(&author, "author", "", "Filter by author name or handle")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runSearch(query string, limit int, platform, author string, jsonOut bool) error {
	db, _, err := openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Search(query, store.SearchOptions{
		TopK:     limit,
		Platform: platform,
		Author:   author,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, r := range results {
		byline := r.Author
		if r.Handle != "" {
			byline = fmt.Sprintf("%s (%s)", r.Author, r.Handle)
		}

		title := r.Title
		if title == "" {
			title = r.Path
		}

		fmt.Printf("\n%d. %s [%s]\n", i+1, title, r.Platform)
		fmt.Printf("   %s\n", r.Path)
		if byline != "" {
			fmt.Printf("   By: %s", byline)
			if r.Published != "" {
				fmt.Printf("  Published: %s", r.Published)
			}
			fmt.Printf("  Score: %.3f\n", r.Score)
		} else {
			fmt.Printf("   Score: %.3f\n", r.Score)
		}

		excerpt := strings.ReplaceAll(r.Excerpt, "\n", " ")
		excerpt = strings.ReplaceAll(excerpt, "\r", "")
		if excerpt != "" {
			fmt.Printf("   %s\n", cli.Truncate(excerpt, 150))
		}
	}
	fmt.Println()

	return nil
}

// ---------- list ----------

func listCmd() *cobra.Command {
	var (
		limit    int
		platform string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently published posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(platform, limit, jsonOut)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of posts")
	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runList(platform string, limit int, jsonOut bool) error {
	db, _, err := openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListRecent(strings.ToLower(platform), limit)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No posts in the index. Run 'parc reindex' first.")
		return nil
	}

	fmt.Println()
	for _, e := range entries {
		published := e.Published
		if len(published) > 10 {
			published = published[:10]
		}
		if published == "" {
			published = "          "
		}

		title := e.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(e.Path), ".md")
		}

		fmt.Printf("  %s  %-10s  %s\n", published, e.Platform, cli.Truncate(title, 60))
		fmt.Printf("              %s%s%s\n", cli.Dim, e.Path, cli.Reset)
	}
	fmt.Println()

	return nil
}

// ---------- show ----------

func showCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show [post-path]",
		Short: "Parse one post document into its full record",
		Long:  "Parse a single archived post: content, media, comments, nested posts, transcripts. Path is relative to vault root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0], jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runShow(relPath string, jsonOut bool) error {
	vp := config.VaultPath()
	if vp == "" {
		return config.ErrNoVault
	}
	v := vault.New(vp)

	rel := filepath.ToSlash(relPath)
	doc, err := v.Read(rel)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	post := postparse.ParseFile(doc, v.Hints(rel, doc.Text))
	if post == nil {
		return userError(fmt.Sprintf("%s is not a parseable post", rel),
			"the file needs YAML frontmatter with a platform field")
	}

	if jsonOut {
		data, _ := json.MarshalIndent(post, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	printPost(post)
	return nil
}

func printPost(post *postparse.PostData) {
	fmt.Println()
	if post.Title != "" {
		fmt.Printf("  %s%s%s\n", cli.Bold, post.Title, cli.Reset)
	}
	fmt.Printf("  Platform: %s", post.Platform)
	if post.ID != "" {
		fmt.Printf("  ID: %s", post.ID)
	}
	if post.IsReblog {
		fmt.Printf("  (reblog)")
	}
	fmt.Println()

	if post.Author.Name != "" || post.Author.Handle != "" {
		fmt.Printf("  Author:   %s", post.Author.Name)
		if post.Author.Handle != "" {
			fmt.Printf(" (%s)", post.Author.Handle)
		}
		if post.Author.Verified {
			fmt.Printf(" ✓")
		}
		fmt.Println()
	}
	if post.Metadata.Timestamp != "" {
		fmt.Printf("  Posted:   %s\n", post.Metadata.Timestamp)
	}
	if post.URL != "" {
		fmt.Printf("  URL:      %s\n", post.URL)
	}
	if post.Series != nil {
		fmt.Printf("  Series:   %s\n", post.Series.ID)
	}
	if len(post.Tags) > 0 {
		fmt.Printf("  Tags:     %s\n", strings.Join(post.Tags, ", "))
	}

	// Engagement counters use -1 for "absent"
	var engagement []string
	for _, c := range []struct {
		label string
		n     int
	}{
		{"likes", post.Metadata.Likes},
		{"comments", post.Metadata.Comments},
		{"shares", post.Metadata.Shares},
		{"views", post.Metadata.Views},
	} {
		if c.n >= 0 {
			engagement = append(engagement, fmt.Sprintf("%s %s", cli.FormatNumber(c.n), c.label))
		}
	}
	if len(engagement) > 0 {
		fmt.Printf("  Stats:    %s\n", strings.Join(engagement, ", "))
	}

	if post.Content.Text != "" {
		fmt.Println()
		for _, line := range strings.Split(post.Content.Text, "\n") {
			fmt.Printf("  %s\n", line)
		}
	}

	var parts []string
	if n := len(post.Media); n > 0 {
		parts = append(parts, fmt.Sprintf("%d media", n))
	}
	if n := len(post.Comments); n > 0 {
		parts = append(parts, fmt.Sprintf("%d comments", n))
	}
	if post.QuotedPost != nil {
		parts = append(parts, "1 quoted post")
	}
	if n := len(post.EmbeddedArchives); n > 0 {
		parts = append(parts, fmt.Sprintf("%d embedded archives", n))
	}
	if n := len(post.WhisperTranscript); n > 0 {
		parts = append(parts, fmt.Sprintf("%d transcript segments", n))
	}
	if len(parts) > 0 {
		fmt.Printf("\n  %sContains: %s — use --json for the full record%s\n", cli.Dim, strings.Join(parts, ", "), cli.Reset)
	}
	fmt.Println()
}

// ---------- export ----------

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Parse every post in the vault and dump the full records as JSON",
		Long:  "Walks the vault, parses every post document in parallel windows, and writes the complete records (content, media, comments, nested posts, transcripts) as a JSON array.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func runExport(out string) error {
	vp := config.VaultPath()
	if vp == "" {
		return config.ErrNoVault
	}

	posts, err := pipeline.ParseAll(vault.New(vp))
	if err != nil {
		return fmt.Errorf("parse vault: %w", err)
	}

	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}

	if out == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d posts to %s\n", len(posts), out)
	return nil
}

// ---------- watch ----------

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch vault for changes and auto-reindex",
		Long:  "Monitor the vault filesystem for markdown file changes. Automatically reindexes modified, created, or deleted posts with a 2-second debounce.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, v, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()
			return watcher.Watch(db, v)
		},
	}
}

// ---------- vault ----------

func vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage vault registrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered vaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := config.LoadRegistry()
			if len(reg.Vaults) == 0 {
				fmt.Println("No vaults registered. Use 'parc vault add <name> <path>' to register one.")
				fmt.Printf("Current vault (auto-detected): %s\n", config.VaultPath())
				return nil
			}
			fmt.Println("Registered vaults:")
			names := make([]string, 0, len(reg.Vaults))
			for name := range reg.Vaults {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				marker := "  "
				if name == reg.Default {
					marker = "* "
				}
				fmt.Printf("  %s%-15s %s\n", marker, name, reg.Vaults[name])
			}
			if reg.Default != "" {
				fmt.Printf("\n  (* = default)\n")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [name] [path]",
		Short: "Register a vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
				return fmt.Errorf("path does not exist or is not a directory: %s", absPath)
			}
			reg := config.LoadRegistry()
			reg.Vaults[name] = absPath
			if len(reg.Vaults) == 1 {
				reg.Default = name
			}
			if err := reg.Save(); err != nil {
				return fmt.Errorf("save registry: %w", err)
			}
			fmt.Printf("Registered vault %q at %s\n", name, absPath)
			if reg.Default == name {
				fmt.Println("Set as default vault.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove [name]",
		Short: "Unregister a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			reg := config.LoadRegistry()
			if _, ok := reg.Vaults[name]; !ok {
				return fmt.Errorf("vault %q not registered", name)
			}
			delete(reg.Vaults, name)
			if reg.Default == name {
				reg.Default = ""
			}
			if err := reg.Save(); err != nil {
				return fmt.Errorf("save registry: %w", err)
			}
			fmt.Printf("Removed vault %q\n", name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "default [name]",
		Short: "Set the default vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			reg := config.LoadRegistry()
			if _, ok := reg.Vaults[name]; !ok {
				return fmt.Errorf("vault %q not registered", name)
			}
			reg.Default = name
			if err := reg.Save(); err != nil {
				return fmt.Errorf("save registry: %w", err)
			}
			fmt.Printf("Default vault set to %q (%s)\n", name, reg.Vaults[name])
			return nil
		},
	})

	return cmd
}

// ---------- config ----------

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage parc configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(config.ShowConfig())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print path to config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			vp := config.VaultPath()
			if vp == "" {
				return config.ErrNoVault
			}
			fmt.Println(config.ConfigFilePath(vp))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open config file in $EDITOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			vp := config.VaultPath()
			if vp == "" {
				return config.ErrNoVault
			}
			configPath := config.ConfigFilePath(vp)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("No config file found. Generating default...")
				if err := config.GenerateConfig(vp); err != nil {
					return err
				}
			}
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			fmt.Printf("Opening %s in %s...\n", configPath, editor)
			return runEditor(editor, configPath)
		},
	})

	return cmd
}

func runEditor(editor, path string) error {
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ---------- doctor ----------

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system health: vault, database, search, watch dirs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

func runDoctor() error {
	passed := 0
	failed := 0

	check := func(name string, hint string, fn func() (string, error)) {
		detail, err := fn()
		if err != nil {
			fmt.Printf("  %s✗%s %s: %s\n",
				cli.Red, cli.Reset, name, err)
			if hint != "" {
				fmt.Printf("    → %s\n", hint)
			}
			failed++
		} else {
			if detail != "" {
				fmt.Printf("  %s✓%s %s (%s)\n",
					cli.Green, cli.Reset, name, detail)
			} else {
				fmt.Printf("  %s✓%s %s\n",
					cli.Green, cli.Reset, name)
			}
			passed++
		}
	}

	fmt.Printf("\n%sparc Health Check%s\n\n", cli.Bold, cli.Reset)

	// 1. Vault path
	check("Vault path", "run 'parc vault add' or set VAULT_PATH", func() (string, error) {
		vp := config.VaultPath()
		if vp == "" {
			return "", fmt.Errorf("no vault found")
		}
		info, err := os.Stat(vp)
		if err != nil {
			return "", fmt.Errorf("path does not exist")
		}
		if !info.IsDir() {
			return "", fmt.Errorf("not a directory")
		}
		return cli.ShortenHome(vp), nil
	})

	// 2. Config file
	check("Config file", "run 'parc config edit' to fix syntax", func() (string, error) {
		if warning := config.ConfigWarning(); warning != "" {
			return "", fmt.Errorf("%s", warning)
		}
		if p := config.FindConfigFile(); p != "" {
			return cli.ShortenHome(p), nil
		}
		return "built-in defaults", nil
	})

	// 3. Database
	check("Database", "run 'parc reindex'", func() (string, error) {
		db, err := store.Open()
		if err != nil {
			return "", fmt.Errorf("cannot open")
		}
		defer db.Close()
		count, err := db.PostCount()
		if err != nil {
			return "", fmt.Errorf("cannot query")
		}
		if count == 0 {
			return "", fmt.Errorf("empty")
		}
		return fmt.Sprintf("%s posts", cli.FormatNumber(count)), nil
	})

	// 4. Full-text search
	check("Full-text search", "run 'parc reindex --force' to rebuild", func() (string, error) {
		db, err := store.Open()
		if err != nil {
			return "", err
		}
		defer db.Close()
		if _, err := db.Search("archive", store.SearchOptions{TopK: 1}); err != nil {
			return "", fmt.Errorf("query failed")
		}
		return "", nil
	})

	// 5. Vault walk
	check("Vault scan", "check directory permissions", func() (string, error) {
		vp := config.VaultPath()
		if vp == "" {
			return "", fmt.Errorf("no vault found")
		}
		paths, err := vault.New(vp).List()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s markdown files", cli.FormatNumber(len(paths))), nil
	})

	// 6. Data directory writable
	check("Data directory", "set PARC_DATA_DIR to a writable directory", func() (string, error) {
		dir := config.DataDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("cannot create %s", dir)
		}
		probe := filepath.Join(dir, ".parc_write_test")
		f, err := os.Create(probe)
		if err != nil {
			return "", fmt.Errorf("not writable")
		}
		f.Close()
		os.Remove(probe)
		return cli.ShortenHome(dir), nil
	})

	fmt.Printf("\n  %d passed, %d failed\n\n", passed, failed)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

// ---------- mcp ----------

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP stdio server",
		RunE: func(cmd *cobra.Command, args []string) error {
			mcpserver.Version = Version
			return mcpserver.Serve()
		},
	}
}

// ---------- helpers ----------

// openIndex opens the post index and the vault it was built from.
func openIndex() (*store.DB, *vault.FSVault, error) {
	vp := config.VaultPath()
	if vp == "" {
		return nil, nil, config.ErrNoVault
	}

	db, err := store.Open()
	if err != nil {
		return nil, nil, userError("Cannot open post index",
			"run 'parc reindex' to build it, or 'parc doctor' to diagnose")
	}
	return db, vault.New(vp), nil
}

type parcError struct {
	message string
	hint    string
}

func (e *parcError) Error() string {
	return fmt.Sprintf("%s\n  Hint: %s", e.message, e.hint)
}

func userError(message, hint string) error {
	return &parcError{message: message, hint: hint}
}
