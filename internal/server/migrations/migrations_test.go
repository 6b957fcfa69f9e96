package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrder(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, ".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"00001_users.sql",
		"00002_projects.sql",
		"00003_task_items.sql",
		"00004_sessions.sql",
	}, names)
}

func TestMigrations_HaveUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, ".")
	require.NoError(t, err)

	for _, e := range entries {
		b, err := fs.ReadFile(Migrations, e.Name())
		require.NoError(t, err)
		body := string(b)
		assert.True(t, strings.Contains(body, "-- +goose Up"), e.Name())
		assert.True(t, strings.Contains(body, "-- +goose Down"), e.Name())
	}
}
