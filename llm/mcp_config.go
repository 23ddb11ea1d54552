package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// MCPServerConfig describes how to reach the downstream MCP server
type MCPServerConfig struct {
	// Path to the MCP server executable
	Path string

	// Args passed to the executable
	Args []string

	// Env entries (KEY=value) for the child process
	Env []string
}

// DiscoverMCPServers looks for MCP servers in the environment and common
// install locations, in that order
func DiscoverMCPServers(getenv func(string) string) ([]MCPServerConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	servers := []MCPServerConfig{}

	if serverPath := getenv("MCP_SERVER_PATH"); serverPath != "" {
		servers = append(servers, MCPServerConfig{Path: serverPath})
	}

	// MCP_SERVERS is a comma-separated list of executables
	if serverList := getenv("MCP_SERVERS"); serverList != "" {
		for _, server := range strings.Split(serverList, ",") {
			server = strings.TrimSpace(server)
			if server == "" {
				continue
			}
			if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
				return nil, fmt.Errorf("HTTP transport not supported: %s", server)
			}
			servers = append(servers, MCPServerConfig{Path: server})
		}
	}

	commonPaths := []string{
		"./mcp-server",
		filepath.Join(getenv("HOME"), ".local/bin/mcp-server"),
		"/usr/local/bin/mcp-server",
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			servers = append(servers, MCPServerConfig{Path: path})
		}
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no MCP servers discovered; set MCP_SERVER_PATH or MCP_SERVERS")
	}
	return servers, nil
}

// GetMCPServerConfig returns serverPath when set, otherwise the first
// discovered server
func GetMCPServerConfig(serverPath string) (*MCPServerConfig, error) {
	if serverPath != "" {
		if strings.HasPrefix(serverPath, "http://") || strings.HasPrefix(serverPath, "https://") {
			return nil, fmt.Errorf("HTTP transport not supported: %s", serverPath)
		}
		fields := strings.Fields(serverPath)
		return &MCPServerConfig{Path: fields[0], Args: fields[1:]}, nil
	}

	servers, err := DiscoverMCPServers(nil)
	if err != nil {
		return nil, err
	}
	return &servers[0], nil
}

// DialStdio starts the server as a child process and performs the MCP
// handshake. The returned client must be closed by the caller.
func DialStdio(ctx context.Context, server *MCPServerConfig) (*client.StdioMCPClient, error) {
	mcpClient, err := client.NewStdioMCPClient(server.Path, server.Env, server.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP stdio client: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "piiguard-relay",
		Version: "1.0.0",
	}

	if _, err := mcpClient.Initialize(ctx, initRequest); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	return mcpClient, nil
}
