package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hargabyte/tsig/internal/mcp"
)

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Unified tool gateway for all tsig MCP tools",
	Long: `Call any tsig MCP tool with JSON arguments, without starting a server.

Modes:
  tsig call --list                          List all tools and parameters
  tsig call <tool> '{"key":"value"}'        Call a tool with JSON args
  tsig call --pipe                          Read JSON lines from stdin

Tool names accept shorthand: "find" is equivalent to "ts_find".

Examples:
  tsig call --list
  tsig call find '{"pattern":"get*"}'
  tsig call exports '{"source":"export function f(a: number) {}"}'
  tsig call file '{"path":"src/api.ts","density":"dense"}'
  echo '{"tool":"ts_find","args":{"pattern":"get*"}}' | tsig call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return runCallList(cmd.OutOrStdout())
	}
	if callPipe {
		return runCallPipe(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	if len(args) == 0 {
		return fmt.Errorf("tool name required (run 'tsig call --list' to see available tools)")
	}
	return runCallSingle(cmd.OutOrStdout(), args)
}

func newCallServer() (*mcp.Server, error) {
	srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools, StorePath: serveStorePath()})
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}
	return srv, nil
}

func runCallList(w io.Writer) error {
	srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	schemas := srv.GetToolSchemas()

	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, s := range schemas {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	default: // yaml
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(schemas)
	}
}

func runCallSingle(w io.Writer, args []string) error {
	toolName := normalizeToolName(args[0])

	toolArgs := make(map[string]interface{})
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("invalid JSON args: %w", err)
		}
	}

	srv, err := newCallServer()
	if err != nil {
		return err
	}
	defer srv.Close()

	result, err := srv.CallTool(toolName, toolArgs)
	if err != nil {
		return err
	}

	fmt.Fprint(w, result)
	return nil
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runCallPipe(r io.Reader, w io.Writer) error {
	srv, err := newCallServer()
	if err != nil {
		return err
	}
	defer srv.Close()

	enc := json.NewEncoder(w)
	scanner := bufio.NewScanner(r)
	// Source text can be large
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			enc.Encode(pipeResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if req.Args == nil {
			req.Args = make(map[string]interface{})
		}

		result, err := srv.CallTool(normalizeToolName(req.Tool), req.Args)
		if err != nil {
			enc.Encode(pipeResponse{Error: err.Error()})
			continue
		}
		enc.Encode(pipeResponse{Result: result})
	}

	return scanner.Err()
}

// normalizeToolName converts shorthand names to full tool names.
// "find" -> "ts_find", "ts_find" -> "ts_find"
func normalizeToolName(name string) string {
	if !strings.HasPrefix(name, "ts_") {
		return "ts_" + name
	}
	return name
}
