//go:build basic || database

package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runFixtureLifecycle imports a topology, fits it and clears the store again.
func runFixtureLifecycle(t *testing.T, dir string, env []string, topology string) {
	t.Helper()

	_, err := runTribal(t, dir, env, "fixture", "migrate")
	require.NoError(t, err)
	_, err = runTribal(t, dir, env, "fixture", "clear")
	require.NoError(t, err)
	_, err = runTribal(t, dir, env, "fixture", "import", topology)
	require.NoError(t, err)

	out, err := runTribal(t, dir, env, "fixture", "status", "--output", "json")
	require.NoError(t, err)
	var status struct {
		Rows         int `json:"rows"`
		Projects     int `json:"projects"`
		Repositories int `json:"repositories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 7, status.Rows)
	assert.Equal(t, 2, status.Projects)
	assert.Equal(t, 4, status.Repositories)

	out, err = runTribal(t, dir, env, append([]string{"fit", "--output", "json"}, smallRun...)...)
	require.NoError(t, err)
	var report fitReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Projects, 2)
	assert.Len(t, report.Repositories, 4)

	_, err = runTribal(t, dir, env, "fixture", "clear")
	require.NoError(t, err)
	_, err = runTribal(t, dir, env, "fit")
	require.Error(t, err, "fit on an empty fixture should fail")
}
