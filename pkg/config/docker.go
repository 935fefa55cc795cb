package config

import (
	"os"
	"sync"
)

var (
	inContainerOnce   sync.Once
	inContainerResult bool
)

// InContainer reports whether smartcode runs inside a Docker container,
// detected by the /.dockerenv marker. The result is cached.
func InContainer() bool {
	inContainerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		inContainerResult = err == nil
	})
	return inContainerResult
}

// ResolveHostForDocker maps loopback database hosts to host.docker.internal
// when running in a container, so a database on the host machine stays reachable.
func ResolveHostForDocker(host string) string {
	if !InContainer() {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return "host.docker.internal"
	}
	return host
}
