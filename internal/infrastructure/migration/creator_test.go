package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add reminder index":  "add_reminder_index",
		"Add-Document--Path":  "add_document_path",
		"  trailing spaces  ": "trailing_spaces",
		"v2 schema!":          "v2_schema",
		"***":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sql")

	first, err := CreateMigration(dir, "leasing schema")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)
	assert.Equal(t, "000001_leasing_schema.up.sql", filepath.Base(first.UpPath))

	second, err := CreateMigration(dir, "add reminder index")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "000002_add_reminder_index", list[1].String())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations_IgnoresNoise(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000003_c.up.sql", "000003_c.down.sql",
		"000001_a.up.sql", "000001_a.down.sql",
		"README.md", "notes.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000002_dir.up.sql"), 0o755))

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(1), list[0].Version)
	assert.Equal(t, uint(3), list[1].Version)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListEmbedded(t *testing.T) {
	list, err := ListEmbedded()
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, Migration{Version: 1, Name: "leasing_schema"}, list[0])

	up, err := embedded.ReadFile(EmbeddedDir + "/000001_leasing_schema.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "idx_contracts_one_active_per_property")
	assert.Contains(t, string(up), "idx_matches_inquiry_property")
	assert.Contains(t, string(up), "chk_contracts_dates")
}
