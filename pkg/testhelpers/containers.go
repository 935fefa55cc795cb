// Package testhelpers starts throwaway database servers for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RemoteDB describes a running database container.
type RemoteDB struct {
	Container testcontainers.Container
	Driver    string
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
}

type containerSpec struct {
	driver   string
	image    string
	port     nat.Port
	database string
	user     string
	env      func(password string) map[string]string
	waitFor  func(port nat.Port) wait.Strategy
}

var specs = map[string]containerSpec{
	"mysql": {
		driver:   "mysql",
		image:    "mysql:8.4",
		port:     "3306/tcp",
		database: "smartcode",
		user:     "smartcode",
		env: func(password string) map[string]string {
			return map[string]string{
				"MYSQL_DATABASE":      "smartcode",
				"MYSQL_USER":          "smartcode",
				"MYSQL_PASSWORD":      password,
				"MYSQL_ROOT_PASSWORD": password,
			}
		},
		waitFor: func(port nat.Port) wait.Strategy {
			return wait.ForAll(
				wait.ForLog("port: 3306  MySQL Community Server"),
				wait.ForListeningPort(port),
			).WithDeadline(120 * time.Second)
		},
	},
	"postgres": {
		driver:   "postgres",
		image:    "postgres:16-alpine",
		port:     "5432/tcp",
		database: "smartcode",
		user:     "smartcode",
		env: func(password string) map[string]string {
			return map[string]string{
				"POSTGRES_DB":       "smartcode",
				"POSTGRES_USER":     "smartcode",
				"POSTGRES_PASSWORD": password,
			}
		},
		waitFor: func(nat.Port) wait.Strategy {
			return wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second)
		},
	},
}

var (
	sharedMu   sync.Mutex
	shared     = map[string]*RemoteDB{}
	sharedErrs = map[string]error{}
)

// GetRemoteDB returns a shared container for driver ("mysql" or "postgres").
// The container is created once and reused across all tests in the run.
func GetRemoteDB(t *testing.T, driver string) *RemoteDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	spec, ok := specs[driver]
	if !ok {
		t.Fatalf("no test container for driver %q", driver)
	}

	sharedMu.Lock()
	defer sharedMu.Unlock()

	if err, failed := sharedErrs[driver]; failed {
		t.Fatalf("Failed to setup %s container: %v", driver, err)
	}
	if db, ok := shared[driver]; ok {
		return db
	}

	db, err := startContainer(spec)
	if err != nil {
		sharedErrs[driver] = err
		t.Fatalf("Failed to setup %s container: %v", driver, err)
	}
	shared[driver] = db
	return db
}

func startContainer(spec containerSpec) (*RemoteDB, error) {
	ctx := context.Background()
	// Throwaway credential for a container that only lives for the test run
	password := strings.ReplaceAll(uuid.NewString(), "-", "")

	req := testcontainers.ContainerRequest{
		Image:        spec.image,
		ExposedPorts: []string{string(spec.port)},
		Env:          spec.env(password),
		WaitingFor:   spec.waitFor(spec.port),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s container: %w", spec.driver, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, spec.port)
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &RemoteDB{
		Container: container,
		Driver:    spec.driver,
		Host:      host,
		Port:      port.Int(),
		Database:  spec.database,
		User:      spec.user,
		Password:  password,
	}, nil
}
