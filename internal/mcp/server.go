// Package mcp provides an MCP (Model Context Protocol) server for tsig.
// Agents can analyze TypeScript source and query scanned signatures through
// MCP tools instead of spawning CLI commands.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hargabyte/tsig/internal/extract"
	"github.com/hargabyte/tsig/internal/output"
	"github.com/hargabyte/tsig/internal/parser"
	"github.com/hargabyte/tsig/internal/store"
)

// ErrNoStore is returned by tools that need scanned data when the server
// was started without a store.
var ErrNoStore = errors.New("no signature store: run 'tsig init && tsig scan' first")

// Server wraps the MCP server with tsig-specific tools.
type Server struct {
	mcpServer    *server.MCPServer
	store        *store.Store
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools     []string      // Which tools to expose (empty = all)
	Timeout   time.Duration // Inactivity timeout (0 = no timeout)
	StorePath string        // Signature database; empty disables store-backed tools
}

// AllTools lists all available tools
var AllTools = []string{"ts_exports", "ts_find", "ts_file", "ts_stats"}

// New creates a new MCP server. The store at cfg.StorePath is opened when
// the file exists; ts_exports works without it.
func New(cfg Config) (*Server, error) {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"tsig",
			"1.0.0",
			server.WithToolCapabilities(false),
		),
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	if cfg.StorePath != "" {
		if _, err := os.Stat(cfg.StorePath); err == nil {
			st, err := store.Open(cfg.StorePath)
			if err != nil {
				return nil, fmt.Errorf("failed to open store: %w", err)
			}
			s.store = st
		}
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "ts_exports":
		s.mcpServer.AddTool(mcp.NewTool("ts_exports",
			mcp.WithDescription(toolSchemaRegistry["ts_exports"].Description),
			mcp.WithString("source",
				mcp.Required(),
				mcp.Description("TypeScript source text to analyze"),
			),
			mcp.WithString("language",
				mcp.Description("Grammar: typescript or tsx (default: typescript)"),
			),
			mcp.WithString("density",
				mcp.Description("Detail level: sparse, medium, dense (default: medium)"),
			),
		), s.handle("ts_exports"))
	case "ts_find":
		s.mcpServer.AddTool(mcp.NewTool("ts_find",
			mcp.WithDescription(toolSchemaRegistry["ts_find"].Description),
			mcp.WithString("pattern",
				mcp.Required(),
				mcp.Description("Function name pattern; * and ? are wildcards"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum results (default: 50)"),
			),
			mcp.WithString("density",
				mcp.Description("Detail level: sparse, medium, dense (default: medium)"),
			),
		), s.handle("ts_find"))
	case "ts_file":
		s.mcpServer.AddTool(mcp.NewTool("ts_file",
			mcp.WithDescription(toolSchemaRegistry["ts_file"].Description),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("File path relative to the scan root"),
			),
			mcp.WithString("density",
				mcp.Description("Detail level: sparse, medium, dense (default: medium)"),
			),
		), s.handle("ts_file"))
	case "ts_stats":
		s.mcpServer.AddTool(mcp.NewTool("ts_stats",
			mcp.WithDescription(toolSchemaRegistry["ts_stats"].Description),
		), s.handle("ts_stats"))
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
	return nil
}

// handle adapts CallTool to an MCP handler. Tool failures are reported as
// tool errors, not protocol errors.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.CallTool(name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "tsig serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close closes the server and its resources
func (s *Server) Close() error {
	if s.store != nil {
		err := s.store.Close()
		s.store = nil
		return err
	}
	return nil
}

// ListTools returns the registered tool names, sorted.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

var densityParam = ParameterSchema{Name: "density", Type: "string", Description: "Detail level: sparse, medium, dense (default: medium)"}

// toolSchemaRegistry mirrors the mcp.NewTool definitions in registerTool.
var toolSchemaRegistry = map[string]ToolSchema{
	"ts_exports": {
		Name:        "ts_exports",
		Description: "Extract exported function signatures from TypeScript source text. Returns YAML.",
		Parameters: []ParameterSchema{
			{Name: "source", Type: "string", Description: "TypeScript source text to analyze", Required: true},
			{Name: "language", Type: "string", Description: "Grammar: typescript or tsx (default: typescript)"},
			densityParam,
		},
	},
	"ts_find": {
		Name:        "ts_find",
		Description: "Search scanned exported functions by name pattern.",
		Parameters: []ParameterSchema{
			{Name: "pattern", Type: "string", Description: "Function name pattern; * and ? are wildcards", Required: true},
			{Name: "limit", Type: "number", Description: "Maximum results (default: 50)"},
			densityParam,
		},
	},
	"ts_file": {
		Name:        "ts_file",
		Description: "Show the scanned exported functions of one file.",
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: "File path relative to the scan root", Required: true},
			densityParam,
		},
	},
	"ts_stats": {
		Name:        "ts_stats",
		Description: "Count scanned files and exported functions.",
		Parameters:  []ParameterSchema{},
	},
}

// GetToolSchemas returns schemas for all registered tools, sorted by name.
func (s *Server) GetToolSchemas() []ToolSchema {
	names := s.ListTools()
	schemas := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments and
// returns the YAML result.
func (s *Server) CallTool(name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s (run 'tsig call --list' to see available tools)", name)
	}
	s.updateActivity()

	density := output.DefaultDensity
	if d, _ := args["density"].(string); d != "" {
		parsed, err := output.ParseDensity(d)
		if err != nil {
			return "", err
		}
		density = parsed
	}

	switch name {
	case "ts_exports":
		source, ok := args["source"].(string)
		if !ok {
			return "", fmt.Errorf("source parameter is required")
		}
		language, _ := args["language"].(string)
		return s.executeExports(source, language, density)

	case "ts_find":
		pattern, _ := args["pattern"].(string)
		if pattern == "" {
			return "", fmt.Errorf("pattern parameter is required")
		}
		limit := 50
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		return s.executeFind(pattern, limit, density)

	case "ts_file":
		path, _ := args["path"].(string)
		if path == "" {
			return "", fmt.Errorf("path parameter is required")
		}
		return s.executeFile(path, density)

	case "ts_stats":
		return s.executeStats()

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) executeExports(source, language string, density output.Density) (string, error) {
	lang := parser.TypeScript
	if language != "" {
		lang = parser.Language(language)
	}

	a, err := extract.NewAnalyzerFor(lang)
	if err != nil {
		return "", err
	}
	defer a.Close()

	fns, err := a.Analyze(source)
	if err != nil {
		return "", fmt.Errorf("analyze: %w", err)
	}

	return toYAML(output.NewExportsOutput([]output.FileExports{{Path: "<source>", Exports: fns}}, density))
}

func (s *Server) executeFind(pattern string, limit int, density output.Density) (string, error) {
	if s.store == nil {
		return "", ErrNoStore
	}

	records, err := s.store.FindByName(pattern)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return toYAML(output.NewExportsOutput(GroupRecords(records), density))
}

func (s *Server) executeFile(path string, density output.Density) (string, error) {
	if s.store == nil {
		return "", ErrNoStore
	}

	if _, err := s.store.FileHash(path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("file not scanned: %s", path)
		}
		return "", err
	}

	records, err := s.store.Exports(path)
	if err != nil {
		return "", err
	}

	files := GroupRecords(records)
	if len(files) == 0 {
		files = []output.FileExports{{Path: path, Exports: []extract.ExportedFunction{}}}
	}
	return toYAML(output.NewExportsOutput(files, density))
}

func (s *Server) executeStats() (string, error) {
	if s.store == nil {
		return "", ErrNoStore
	}

	stats, err := s.store.Stats()
	if err != nil {
		return "", err
	}
	return toYAML(stats)
}

// GroupRecords folds store records, already ordered by path, into one
// FileExports per file.
func GroupRecords(records []store.Record) []output.FileExports {
	var files []output.FileExports
	for _, r := range records {
		if len(files) == 0 || files[len(files)-1].Path != r.Path {
			files = append(files, output.FileExports{Path: r.Path})
		}
		last := &files[len(files)-1]
		last.Exports = append(last.Exports, r.ExportedFunction)
	}
	return files
}

func toYAML(v interface{}) (string, error) {
	return output.NewYAMLFormatter().Format(v)
}
