package verify

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/mwessel/relais/pkg/datagroup"
	dgmemory "github.com/mwessel/relais/pkg/datagroup/memory"
)

// startDatagroupServer runs the real datagroup MCP server over streamable
// HTTP and returns its /mcp endpoint URL.
func startDatagroupServer(t *testing.T) string {
	t.Helper()

	server := datagroup.NewMCPServer(dgmemory.New(), "datagroup-test", "0.0.0")
	srv := httptest.NewServer(datagroup.NewHTTPHandler(server))
	t.Cleanup(srv.Close)
	return srv.URL + "/mcp"
}

func TestMCPFullScenarios(t *testing.T) {
	url := startDatagroupServer(t)

	err := MCP(context.Background(), MCPOptions{
		URL:    url,
		Poller: fastPoller(),
	})
	if err != nil {
		t.Fatalf("mcp verification failed: %v", err)
	}
}

func TestMCPHealthCheckMode(t *testing.T) {
	url := startDatagroupServer(t)

	err := MCP(context.Background(), MCPOptions{
		URL:         url,
		HealthCheck: true,
		Poller:      fastPoller(),
	})
	if err != nil {
		t.Fatalf("mcp health check failed: %v", err)
	}
}

func TestMCPUnreachable(t *testing.T) {
	err := MCP(context.Background(), MCPOptions{
		URL:    "http://127.0.0.1:1/mcp",
		Poller: fastPoller(),
	})
	if ExitCode(err) != ExitConnectivity {
		t.Errorf("exit code = %d, want connectivity (err: %v)", ExitCode(err), err)
	}
}

// Health probes only know healthy and unhealthy, so health-check mode
// collapses every failure class to exit 1.
func TestMCPHealthCheckModeExitsZeroOrOne(t *testing.T) {
	err := MCP(context.Background(), MCPOptions{
		URL:         "http://127.0.0.1:1/mcp",
		HealthCheck: true,
		Poller:      fastPoller(),
	})
	if err == nil {
		t.Fatal("expected an error for an unreachable endpoint")
	}
	if ExitCode(err) != ExitDependency {
		t.Errorf("exit code = %d, want 1 in health-check mode (err: %v)", ExitCode(err), err)
	}
}
