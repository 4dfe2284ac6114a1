// Command launcher selects which relais process to run from the
// environment. Exactly one of the role flags must be set to a truthy
// value ("1", "true", "yes", "on"):
//
//	RELAIS_RUN_ADAPTER    start the OpenWebUI adapter
//	RELAIS_RUN_DATAGROUP  start the datagroup MCP server
//	RELAIS_RUN_ECHO       start the echo debug server
//	RELAIS_RUN_VERIFY     run the verification harness
//
// The launcher replaces itself with the selected binary, so signals and
// exit codes pass through unchanged. Extra command line arguments are
// forwarded to the selected process.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// roleFlags maps each role environment variable to the binary it starts,
// in the order startup errors list them.
var roleFlags = []struct {
	env    string
	binary string
}{
	{"RELAIS_RUN_ADAPTER", "adapter"},
	{"RELAIS_RUN_DATAGROUP", "datagroup-server"},
	{"RELAIS_RUN_ECHO", "echo-server"},
	{"RELAIS_RUN_VERIFY", "verify"},
}

func main() {
	binary, err := selectRole(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	path, err := resolveBinary(binary)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	argv := append([]string{path}, os.Args[1:]...)
	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: exec %s: %v\n", path, err)
		os.Exit(1)
	}
}

// selectRole picks the single enabled role. Zero or multiple enabled
// flags is a configuration error.
func selectRole(getenv func(string) string) (string, error) {
	var enabled []string
	binary := ""
	for _, role := range roleFlags {
		if truthy(getenv(role.env)) {
			enabled = append(enabled, role.env)
			binary = role.binary
		}
	}
	switch len(enabled) {
	case 1:
		return binary, nil
	case 0:
		return "", fmt.Errorf("no role selected: set exactly one of %s", flagList())
	default:
		return "", fmt.Errorf("conflicting roles %s: set exactly one of %s",
			strings.Join(enabled, ", "), flagList())
	}
}

// resolveBinary looks for the role binary next to the launcher first,
// then on PATH.
func resolveBinary(name string) (string, error) {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), name)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("role binary %q not found: %w", name, err)
	}
	return path, nil
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func flagList() string {
	names := make([]string, len(roleFlags))
	for i, role := range roleFlags {
		names[i] = role.env
	}
	return strings.Join(names, ", ")
}
