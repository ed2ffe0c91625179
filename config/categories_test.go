package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCategories(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		expectedNames []string
		expectError   bool
	}{
		{
			name:          "Basic catalog",
			content:       `{"categories":[{"name":"residential"},{"name":"student housing"}]}`,
			expectedNames: []string{"residential", "student housing"},
		},
		{
			name:          "Empty catalog",
			content:       `{"categories":[]}`,
			expectedNames: []string{},
		},
		{
			name:        "Malformed file",
			content:     `{"categories":`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadCategories(writeCatalog(t, tt.content))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.expectedNames, GetCategoryNames())
		})
	}
}

func TestLoadCategories_MissingFileUsesDefaults(t *testing.T) {
	err := LoadCategories(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Len(t, GetCategories(), len(DefaultCategories))
	assert.True(t, IsSupportedCategory("Residential"))
	assert.False(t, IsSupportedCategory("spaceport"))
}

func TestUpdateAndDeleteCategory(t *testing.T) {
	path := writeCatalog(t, `{"categories":[{"name":"residential"}]}`)
	require.NoError(t, LoadCategories(path))

	require.NoError(t, UpdateCategory(Category{Name: "parking", Description: "Garages"}))
	require.NoError(t, UpdateCategory(Category{Name: "Residential", Description: "Homes"}))
	assert.ElementsMatch(t, []string{"Residential", "parking"}, GetCategoryNames())

	// Changes are persisted
	require.NoError(t, LoadCategories(path))
	assert.True(t, IsSupportedCategory("parking"))

	require.NoError(t, DeleteCategory("parking"))
	assert.False(t, IsSupportedCategory("parking"))
	assert.Error(t, DeleteCategory("parking"))
}

func TestUpdateAndDeleteCategory_FailedSaveKeepsCatalog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")
	require.NoError(t, os.Mkdir(dir, 0755))
	path := filepath.Join(dir, "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":[{"name":"residential"}]}`), 0644))
	require.NoError(t, LoadCategories(path))

	// The catalog file can no longer be written
	require.NoError(t, os.RemoveAll(dir))

	assert.Error(t, UpdateCategory(Category{Name: "parking"}))
	assert.False(t, IsSupportedCategory("parking"))

	assert.Error(t, DeleteCategory("residential"))
	assert.True(t, IsSupportedCategory("residential"))
	assert.Equal(t, []string{"residential"}, GetCategoryNames())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "5250", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.UnitOfWork.MaxRetries)
	assert.True(t, cfg.Reconcile.Enabled)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("UOW_MAX_RETRIES=7\nRECONCILE_INTERVAL=15m\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("UOW_MAX_RETRIES")
		os.Unsetenv("RECONCILE_INTERVAL")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.UnitOfWork.MaxRetries)
	assert.Equal(t, "15m0s", cfg.Reconcile.Interval.String())
}
