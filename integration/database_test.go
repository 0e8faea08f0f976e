//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a database container and returns its host and mapped port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// TestFixtureWithMySQL runs the fixture lifecycle against a MySQL backend.
func TestFixtureWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "tribal",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	dir := t.TempDir()
	env := []string{
		"TRIBAL_FIXTURE_BACKEND=mysql",
		fmt.Sprintf("TRIBAL_FIXTURE_DB_CONNECT=root:secret123@tcp(%s:%s)/tribal?parseTime=true&multiStatements=true", host, port),
	}
	runFixtureLifecycle(t, dir, env, writeTopology(t, dir))
}

// TestFixtureWithPostgres runs the fixture lifecycle against a PostgreSQL backend.
func TestFixtureWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	dir := t.TempDir()
	env := []string{
		"TRIBAL_FIXTURE_BACKEND=postgresql",
		fmt.Sprintf("TRIBAL_FIXTURE_DB_CONNECT=host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port),
	}
	runFixtureLifecycle(t, dir, env, writeTopology(t, dir))
}
