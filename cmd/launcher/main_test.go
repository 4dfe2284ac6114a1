package main

import (
	"strings"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestSelectRoleSingle(t *testing.T) {
	tests := []struct {
		name   string
		vars   map[string]string
		binary string
	}{
		{"adapter", map[string]string{"RELAIS_RUN_ADAPTER": "1"}, "adapter"},
		{"datagroup", map[string]string{"RELAIS_RUN_DATAGROUP": "true"}, "datagroup-server"},
		{"echo", map[string]string{"RELAIS_RUN_ECHO": "yes"}, "echo-server"},
		{"verify", map[string]string{"RELAIS_RUN_VERIFY": "on"}, "verify"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binary, err := selectRole(env(tt.vars))
			if err != nil {
				t.Fatalf("selectRole: %v", err)
			}
			if binary != tt.binary {
				t.Errorf("binary = %q, want %q", binary, tt.binary)
			}
		})
	}
}

func TestSelectRoleNoneListsFlags(t *testing.T) {
	_, err := selectRole(env(nil))
	if err == nil {
		t.Fatal("expected error when no role is set")
	}
	for _, flag := range []string{"RELAIS_RUN_ADAPTER", "RELAIS_RUN_DATAGROUP", "RELAIS_RUN_ECHO", "RELAIS_RUN_VERIFY"} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("error %q does not mention %s", err, flag)
		}
	}
}

func TestSelectRoleConflict(t *testing.T) {
	_, err := selectRole(env(map[string]string{
		"RELAIS_RUN_ADAPTER": "1",
		"RELAIS_RUN_ECHO":    "1",
	}))
	if err == nil {
		t.Fatal("expected error for conflicting roles")
	}
	if !strings.Contains(err.Error(), "RELAIS_RUN_ADAPTER") || !strings.Contains(err.Error(), "RELAIS_RUN_ECHO") {
		t.Errorf("error %q does not name the conflicting flags", err)
	}
}

func TestSelectRoleFalseyValuesIgnored(t *testing.T) {
	_, err := selectRole(env(map[string]string{
		"RELAIS_RUN_ADAPTER": "0",
		"RELAIS_RUN_ECHO":    "false",
		"RELAIS_RUN_VERIFY":  "",
	}))
	if err == nil {
		t.Fatal("expected error, falsey values should not select a role")
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on", " on "} {
		if !truthy(v) {
			t.Errorf("truthy(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		if truthy(v) {
			t.Errorf("truthy(%q) = true", v)
		}
	}
}
