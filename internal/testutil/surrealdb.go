package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	surrealImage = "surrealdb/surrealdb:v3.0.0"
	surrealPort  = "8000/tcp"

	// SurrealUser and SurrealPass are the root credentials the test
	// container starts with.
	SurrealUser = "root"
	SurrealPass = "root"
)

var (
	surrealOnce sync.Once
	surrealDB   *SurrealDB
	surrealErr  error
)

// SurrealDB is a containerized document store shared by every integration
// test in the process. Callers isolate themselves with a unique database
// name rather than a container each.
type SurrealDB struct {
	container testcontainers.Container
	address   string
}

// StartSurrealDB starts the shared container on first use and fails the
// test if it cannot come up.
func StartSurrealDB(t *testing.T) *SurrealDB {
	t.Helper()

	surrealOnce.Do(func() {
		surrealDB, surrealErr = startSurreal(context.Background())
	})
	if surrealErr != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealErr)
	}
	return surrealDB
}

func startSurreal(ctx context.Context) (*SurrealDB, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        surrealImage,
			ExposedPorts: []string{surrealPort},
			Cmd:          []string{"start", "--user", SurrealUser, "--pass", SurrealPass},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(surrealPort),
				wait.ForLog("Started web server"),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("resolve container endpoint: %w", err)
	}

	return &SurrealDB{
		container: container,
		address:   fmt.Sprintf("ws://%s/rpc", endpoint),
	}, nil
}

// Address returns the WebSocket RPC address of the running container.
func (s *SurrealDB) Address() string {
	return s.address
}

// Terminate stops the container. Only needed from a TestMain; normally the
// container dies with the test process.
func (s *SurrealDB) Terminate() {
	if s != nil && s.container != nil {
		s.container.Terminate(context.Background())
	}
}
