package main

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/config"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
	"github.com/alexonufrak/dashboardv5-sub004/internal/resolver"
	"github.com/alexonufrak/dashboardv5-sub004/internal/throttle"
	tools "github.com/alexonufrak/dashboardv5-sub004/internal/tools"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting dashboard data server")

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Errorf("configuration error: %v", err)
		os.Exit(1)
	}

	// Connect to the cache daemon; start it if needed, then connect. The
	// durable tier is optional: without it the server still runs, it just
	// loses restart-surviving stale fallbacks.
	var managerOpts []cache.ManagerOption
	logger.Infof("Attempting to connect to cache daemon at %s", cfg.CacheSocket)
	client, err := connectCache(cfg.CacheSocket)
	if err != nil {
		logger.Warnf("Failed to connect to cache daemon: %v, attempting to start daemon", err)
		if startErr := startCacheDaemon(); startErr != nil {
			logger.Errorf("Failed to start cache daemon: %v", startErr)
		} else {
			logger.Infof("Cache daemon started successfully")
		}
		// wait for socket to appear
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if c2, err2 := connectCache(cfg.CacheSocket); err2 == nil {
				client = c2
				err = nil
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
	}
	if client != nil {
		logger.Infof("Connected to cache daemon")
		managerOpts = append(managerOpts, cache.WithPersist(client))
	} else {
		logger.Warnf("Running without durable cache tier: %v", err)
	}

	manager := cache.NewManager(managerOpts...)
	limiter := throttle.New(cfg.RateLimit)
	orch := fetch.New(manager, limiter, cfg.MaxRetries)
	air := airtable.NewClient(cfg.BaseURL, cfg.APIKey, cfg.BaseID)
	svc := resolver.New(air, orch, cfg.Tables)
	logger.Infof("Initialized resolver (quota=%d/s, maxRetries=%d)", cfg.RateLimit, cfg.MaxRetries)

	s := server.NewMCPServer(
		"Dashboard Data",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	toolGet := mcp.NewTool("entity-get",
		mcp.WithDescription(multiline(
			"Resolves a single dashboard entity view by record id",
			"\nFunctionality:",
			"- Assembles a denormalized view, following links into related tables",
			"- Served from cache when fresh; otherwise fetched through the throttled, retrying data-access layer",
			"- Returns the literal text 'null' when the record does not exist",
			"\nUsage notes:",
			"- type is one of: profile, team, cohort, institution, program, participation, partnership, submission, milestone, education",
			"- ttl_seconds optionally overrides the entity's default cache lifetime for this call",
		)),
		mcp.WithString("type", mcp.Required(), mcp.Description("Entity type to resolve")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("ttl_seconds", mcp.Description("Optional cache TTL override in seconds")),
	)
	s.AddTool(toolGet, tools.EntityGetHandler(svc))

	toolList := mcp.NewTool("entity-list",
		mcp.WithDescription(multiline(
			"Resolves all entity views of a type related to a given record",
			"\nSupported pairings:",
			"- participation / team: related_id is a contact id",
			"- cohort / partnership: related_id is an institution id",
			"- submission: related_id is a team id",
			"- milestone: related_id is a cohort id",
			"\nUsage notes:",
			"- Relations reachable through the partnership linking table are included and tagged with their discovery path",
		)),
		mcp.WithString("type", mcp.Required(), mcp.Description("Entity type to list")),
		mcp.WithString("related_id", mcp.Required(), mcp.Description("Id of the related record")),
		mcp.WithString("ttl_seconds", mcp.Description("Optional cache TTL override in seconds")),
	)
	s.AddTool(toolList, tools.EntityListHandler(svc))

	toolInvalidate := mcp.NewTool("cache-invalidate",
		mcp.WithDescription(multiline(
			"Clears cached views for an entity type, optionally scoped to one record",
			"\nUsage notes:",
			"- Idempotent; reports how many entries were removed",
		)),
		mcp.WithString("type", mcp.Required(), mcp.Description("Entity type to clear")),
		mcp.WithString("id", mcp.Description("Optional record id to scope the invalidation")),
	)
	s.AddTool(toolInvalidate, tools.CacheInvalidateHandler(svc))

	toolStats := mcp.NewTool("cache-stats",
		mcp.WithDescription("Reports cache entry counts, estimated size and a per-type breakdown"),
	)
	s.AddTool(toolStats, tools.CacheStatsHandler(svc))
	logger.Infof("Registered entity-get, entity-list, cache-invalidate, cache-stats tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func connectCache(sock string) (*cache.Client, error) {
	// quick probe
	conn, err := net.DialTimeout("unix", sock, 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	_ = conn.Close()
	return cache.NewClient(sock), nil
}

func startCacheDaemon() error {
	// 1) Try cache binary next to this server executable (works with absolute invocation)
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		sibling := filepath.Join(exeDir, "dashboard-cache")
		if _, statErr := os.Stat(sibling); statErr == nil {
			cmd := exec.Command(sibling)
			cmd.Stdout = nil
			cmd.Stderr = nil
			cmd.Env = os.Environ()
			return cmd.Start()
		}
	}

	// 2) Try PATH binary
	if path, err := exec.LookPath("dashboard-cache"); err == nil {
		cmd := exec.Command(path)
		cmd.Stdout = nil
		cmd.Stderr = nil
		cmd.Env = os.Environ()
		return cmd.Start()
	}

	// 3) Try local binary in current working directory (best-effort)
	if _, err := os.Stat("./dashboard-cache"); err == nil {
		cmd := exec.Command("./dashboard-cache")
		cmd.Stdout = nil
		cmd.Stderr = nil
		cmd.Env = os.Environ()
		return cmd.Start()
	}

	return exec.ErrNotFound
}
