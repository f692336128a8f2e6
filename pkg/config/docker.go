package config

import (
	"os"
	"strings"
	"sync"
)

// DefaultDockerHostAlias is the name Docker Desktop gives the host machine.
const DefaultDockerHostAlias = "host.docker.internal"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv file which exists in all Docker containers.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker returns the host to dial for a database host taken
// from configuration. Inside Docker, loopback names refer to the container
// itself, so they are replaced by the host alias: DOCKER_HOST_ALIAS when
// set (e.g. 172.17.0.1 on Linux), host.docker.internal otherwise.
// Outside Docker the host is returned unchanged.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if !inDocker || !isLoopback(host) {
		return host
	}
	if alias := strings.TrimSpace(os.Getenv("DOCKER_HOST_ALIAS")); alias != "" {
		return alias
	}
	return DefaultDockerHostAlias
}

func isLoopback(host string) bool {
	switch strings.ToLower(strings.Trim(host, "[]")) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
