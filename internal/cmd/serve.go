package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/config"
	"github.com/hargabyte/tsig/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server for AI agent integration.

Agents can extract signatures from source text and query the signature
database through MCP tools instead of spawning CLI commands.

Available Tools:
  ts_exports   Extract exported functions from source text
  ts_find      Search scanned exports by name
  ts_file      Stored exports of one file
  ts_stats     Database counts

Examples:
  tsig serve --mcp                         # Start with all tools
  tsig serve --mcp --tools exports,find    # Start with specific tools only
  tsig serve --mcp --timeout 30m           # Auto-stop after 30 minutes idle
  tsig serve --status                      # Check if server is running
  tsig serve --stop                        # Stop running server
  tsig serve --list-tools                  # Show available tools`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Available MCP tools:")
		fmt.Fprintln(w)
		srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools})
		if err != nil {
			return err
		}
		defer srv.Close()
		for _, s := range srv.GetToolSchemas() {
			fmt.Fprintf(w, "  %-12s %s\n", s.Name, s.Description)
		}
		return nil
	}

	if serveStatus {
		return checkServerStatus()
	}

	if serveStop {
		return stopServer()
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []string
	if serveTools != "" {
		for _, t := range strings.Split(serveTools, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tools = append(tools, normalizeToolName(t))
			}
		}
	}

	cfg := mcp.Config{
		Tools:     tools,
		Timeout:   timeout,
		StorePath: serveStorePath(),
	}

	server, err := mcp.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := writePIDFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write PID file: %v\n", err)
	}
	defer removePIDFile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\ntsig serve: shutting down\n")
		server.Close()
		removePIDFile()
		os.Exit(0)
	}()

	// stdout carries the MCP protocol
	fmt.Fprintf(os.Stderr, "tsig serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "tsig serve: tools: %v\n", server.ListTools())
	if cfg.StorePath == "" {
		fmt.Fprintf(os.Stderr, "tsig serve: no signature database, only ts_exports will work\n")
	}
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "tsig serve: timeout: %v\n", timeout)
	}

	return server.ServeStdio()
}

// serveStorePath returns the database path when the project has been
// scanned, or "" otherwise.
func serveStorePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return ""
	}
	dbPath, err := existingStorePath(cfg, cwd)
	if err != nil {
		return ""
	}
	return dbPath
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the PID recorded by a running server.
func readPID() (int, error) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func checkServerStatus() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("Status: not running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Println("Status: not running")
		removePIDFile()
		return nil
	}

	// FindProcess always succeeds on Unix; signal 0 checks liveness
	if err := process.Signal(syscall.Signal(0)); err != nil {
		fmt.Println("Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Printf("Status: running (PID %d)\n", pid)
	return nil
}

func stopServer() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		fmt.Println("No server running")
		return nil
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile()
		fmt.Println("Server already stopped")
		return nil
	}

	fmt.Printf("Stopped server (PID %d)\n", pid)
	return nil
}
