// Package mcp implements the MCP server for parc.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vaultarc/postarc/internal/config"
	"github.com/vaultarc/postarc/internal/indexer"
	"github.com/vaultarc/postarc/internal/postparse"
	"github.com/vaultarc/postarc/internal/store"
	"github.com/vaultarc/postarc/internal/vault"
)

var (
	db              *store.DB
	archive         *vault.FSVault
	lastReindexTime time.Time
	reindexMu       sync.Mutex
	vaultRoot       string
)

const reindexCooldown = 60 * time.Second

// Version is set by the caller (main) before calling Serve.
var Version = "dev"

// Serve starts the MCP server on stdio.
func Serve() error {
	var err error
	db, err = store.Open()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	vaultRoot, _ = filepath.Abs(config.VaultPath())
	archive = vault.New(vaultRoot)
	indexer.Version = Version

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "parc",
		Version: Version,
	}, nil)

	registerTools(server)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}

func registerTools(server *mcp.Server) {
	// search_posts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_posts",
		Description: "Search the user's archived social-media posts by keyword. Use this to find posts about a topic, by rough phrasing from the title or excerpt.\n\nArgs:\n  query: Keyword query (e.g. 'sourdough baking thread')\n  top_k: Number of results (default 10, max 100)\n  platform: Optional platform filter (e.g. 'twitter', 'youtube')\n  author: Optional author name or handle filter\n\nReturns ranked list of matching posts with paths, platforms, and excerpts.",
	}, handleSearchPosts)

	// get_post
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_post",
		Description: "Parse one archived post document into its full typed record: content, media, comments, nested quoted/embedded posts, transcripts, engagement metadata. Paths are relative to the vault root, as returned by search_posts or list_posts.\n\nArgs:\n  path: Relative path from vault root\n\nReturns the full post record as JSON, or an explanation when the file is not a parseable post.",
	}, handleGetPost)

	// list_posts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_posts",
		Description: "List the most recently published archived posts. Use this for a quick overview of the archive or of one platform.\n\nArgs:\n  platform: Optional platform filter\n  limit: Number of posts (default 20, max 100)\n\nReturns index entries ordered by publish date, newest first.",
	}, handleListPosts)

	// reindex
	mcp.AddTool(server, &mcp.Tool{
		Name:        "reindex",
		Description: "Re-scan the vault and refresh the post index. Use this if the user has added or changed archive files and results seem stale. Incremental by default (only re-parses changed files).\n\nArgs:\n  force: Re-parse all files regardless of changes (default false)\n\nReturns indexing statistics.",
	}, handleReindex)

	// index_stats
	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Check the health and size of the post index. Use this to verify the index is up to date or to report stats to the user.\n\nReturns post count, per-platform counts, last reindex time, and database size.",
	}, handleIndexStats)
}

// Tool input types

type searchInput struct {
	Query    string `json:"query" jsonschema:"Keyword search query"`
	TopK     int    `json:"top_k" jsonschema:"Number of results (default 10, max 100)"`
	Platform string `json:"platform,omitempty" jsonschema:"Filter by platform"`
	Author   string `json:"author,omitempty" jsonschema:"Filter by author name or handle"`
}

type getInput struct {
	Path string `json:"path" jsonschema:"Relative path from vault root"`
}

type listInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"Filter by platform"`
	Limit    int    `json:"limit" jsonschema:"Number of posts (default 20, max 100)"`
}

type reindexInput struct {
	Force bool `json:"force" jsonschema:"Re-parse all files regardless of changes"`
}

type emptyInput struct{}

// Tool handlers

func handleSearchPosts(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	results, err := db.Search(input.Query, store.SearchOptions{
		TopK:     clampTopK(input.TopK, 10),
		Platform: input.Platform,
		Author:   input.Author,
	})
	if err != nil {
		return textResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}
	if len(results) == 0 {
		return textResult("No results found. The index may be empty — try running reindex() first."), nil, nil
	}

	data, _ := json.MarshalIndent(results, "", "  ")
	return textResult(string(data)), nil, nil
}

func handleGetPost(ctx context.Context, req *mcp.CallToolRequest, input getInput) (*mcp.CallToolResult, any, error) {
	rel, ok := safeVaultPath(input.Path)
	if !ok {
		return textResult("Error: path must be a relative path within the vault."), nil, nil
	}

	doc, err := archive.Read(rel)
	if err != nil {
		return textResult("File not found."), nil, nil
	}

	post := postparse.ParseFile(doc, archive.Hints(rel, doc.Text))
	if post == nil {
		return textResult("Not a parseable archived post (missing frontmatter or platform)."), nil, nil
	}

	data, _ := json.MarshalIndent(post, "", "  ")
	return textResult(string(data)), nil, nil
}

func handleListPosts(ctx context.Context, req *mcp.CallToolRequest, input listInput) (*mcp.CallToolResult, any, error) {
	entries, err := db.ListRecent(strings.ToLower(input.Platform), clampTopK(input.Limit, 20))
	if err != nil {
		return textResult(fmt.Sprintf("List error: %v", err)), nil, nil
	}
	if len(entries) == 0 {
		return textResult("No posts in the index. Try running reindex() first."), nil, nil
	}

	data, _ := json.MarshalIndent(entries, "", "  ")
	return textResult(string(data)), nil, nil
}

func handleReindex(ctx context.Context, req *mcp.CallToolRequest, input reindexInput) (*mcp.CallToolResult, any, error) {
	reindexMu.Lock()
	defer reindexMu.Unlock()

	if time.Since(lastReindexTime) < reindexCooldown {
		remaining := int(reindexCooldown.Seconds() - time.Since(lastReindexTime).Seconds())
		data, _ := json.Marshal(map[string]string{
			"error": fmt.Sprintf("Reindex cooldown active. Try again in %ds.", remaining),
		})
		return textResult(string(data)), nil, nil
	}
	lastReindexTime = time.Now()

	stats, err := indexer.Reindex(db, archive, input.Force)
	if err != nil {
		return textResult(fmt.Sprintf("Reindex error: %v", err)), nil, nil
	}

	data, _ := json.MarshalIndent(stats, "", "  ")
	return textResult(string(data)), nil, nil
}

func handleIndexStats(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	stats := indexer.GetStats(db)
	data, _ := json.MarshalIndent(stats, "", "  ")
	return textResult(string(data)), nil, nil
}

// Helpers

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func clampTopK(topK, defaultVal int) int {
	if topK <= 0 {
		return defaultVal
	}
	if topK > 100 {
		return 100
	}
	return topK
}

// safeVaultPath normalizes a tool-supplied path to a vault-relative
// path, blocking traversal out of the vault.
func safeVaultPath(path string) (string, bool) {
	if filepath.IsAbs(path) {
		return "", false
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(path)))
	if clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return "", false
	}
	return clean, true
}
