package config

import (
	"testing"
)

func TestResolveHost_NotInDocker(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1", "mydb.example.com", ""} {
		if got := resolveHost(host, false); got != host {
			t.Errorf("resolveHost(%q, false) = %q, want unchanged", host, got)
		}
	}
}

func TestResolveHost_InDocker(t *testing.T) {
	unsetEnv(t, "DOCKER_HOST_ALIAS")

	tests := []struct {
		input    string
		expected string
	}{
		{"localhost", DefaultDockerHostAlias},
		{"LOCALHOST", DefaultDockerHostAlias},
		{"127.0.0.1", DefaultDockerHostAlias},
		{"::1", DefaultDockerHostAlias},
		{"[::1]", DefaultDockerHostAlias},
		{"mydb.example.com", "mydb.example.com"},
		{"192.168.1.100", "192.168.1.100"},
		{"host.docker.internal", "host.docker.internal"},
	}

	for _, tt := range tests {
		if got := resolveHost(tt.input, true); got != tt.expected {
			t.Errorf("resolveHost(%q, true) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestResolveHost_AliasFromEnv(t *testing.T) {
	t.Setenv("DOCKER_HOST_ALIAS", "172.17.0.1")

	if got := resolveHost("localhost", true); got != "172.17.0.1" {
		t.Errorf("resolveHost(localhost) = %q, want 172.17.0.1", got)
	}
	if got := resolveHost("db.internal", true); got != "db.internal" {
		t.Errorf("resolveHost(db.internal) = %q, want unchanged", got)
	}
}

func TestResolveHostForDocker_NonLoopbackUnchanged(t *testing.T) {
	// These hosts are never modified regardless of Docker status
	for _, host := range []string{"mydb.example.com", "192.168.1.100", "host.docker.internal"} {
		if got := ResolveHostForDocker(host); got != host {
			t.Errorf("ResolveHostForDocker(%q) = %q, want %q", host, got, host)
		}
	}
}
