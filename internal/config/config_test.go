package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasksync/tasksync/internal/domain"
)

// TestLoadMissingFile verifies a missing config yields the defaults
// rather than an error.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Statuses, cfg.Statuses)
	assert.Equal(t, Default().Categories, cfg.Categories)
	assert.Empty(t, cfg.Mappings)
}

// TestLoad verifies parsing and default filling for unset vocabularies.
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_repository: acme/widget
mappings:
  - repository: microsoft/vscode
    target_area: VSCode Dev
    target_project: VSCode Core
    priority: 2
  - organization: microsoft
    target_project: Microsoft
    priority: 1
categories:
  - Chore
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme/widget", cfg.DefaultRepository)
	require.Len(t, cfg.Mappings, 2)
	assert.Equal(t, domain.RepoMapping{
		Repository:    "microsoft/vscode",
		TargetArea:    "VSCode Dev",
		TargetProject: "VSCode Core",
		Priority:      2,
	}, cfg.Mappings[0])
	assert.Equal(t, []string{"Chore"}, cfg.Categories)

	// Statuses were not set, so defaults apply.
	assert.Equal(t, Default().Statuses, cfg.Statuses)
}

// TestLoadInvalidYAML verifies a parse failure is reported with the path.
func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mappings: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

// TestValidate verifies every rule violation is reported with its index.
func TestValidate(t *testing.T) {
	cfg := &Config{Mappings: []domain.RepoMapping{
		{Repository: "acme/widget", TargetArea: "A"}, // valid
		{Repository: "noslash"},                      // malformed repo, no target
		{Priority: -1},                               // no source, no target, bad priority
	}}

	errs := cfg.Validate()
	assert.Len(t, errs, 5)
	assert.Contains(t, errs[0].Error(), "mapping 1")
	assert.Contains(t, errs[len(errs)-1].Error(), "mapping 2")
}

// TestValidateEmpty verifies the zero config is valid.
func TestValidateEmpty(t *testing.T) {
	assert.Empty(t, (&Config{}).Validate())
	assert.Empty(t, Default().Validate())
}
