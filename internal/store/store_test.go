package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasksync/tasksync/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestTask() domain.Task {
	item := domain.Item{
		Kind:      domain.ItemKindIssue,
		Number:    1,
		Title:     "Fix bug",
		State:     domain.StateOpen,
		HTMLURL:   "https://github.com/acme/widget/issues/1",
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-02T00:00:00Z",
	}
	return domain.Task{
		Title:       "Fix bug",
		Description: "It crashes",
		Category:    "Bug",
		Status:      "Todo",
		Priority:    domain.PriorityHigh,
		Project:     "acme/widget",
		Areas:       []string{"Widgets"},
		Tags:        []string{},
		Source: domain.Source{
			Extension: domain.ExtensionGitHub,
			Keys: map[string]string{
				domain.ExtensionGitHub: item.HTMLURL,
				"obsidian":             "Tasks/Foo.md",
			},
			Data: &item,
		},
	}
}

// TestCreateAndGetAll verifies a full round-trip including source keys
// and the retained raw payload.
func TestCreateAndGetAll(t *testing.T) {
	s := openTestStore(t)

	created, err := s.Create(createTestTask())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	all, err := s.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Fix bug", got.Title)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"Widgets"}, got.Areas)
	assert.Equal(t, "Tasks/Foo.md", got.Source.Keys["obsidian"])
	require.NotNil(t, got.Source.Data)
	assert.Equal(t, domain.ItemKindIssue, got.Source.Data.Kind)
	assert.Equal(t, "https://github.com/acme/widget/issues/1", got.Source.Data.HTMLURL)
}

// TestCreateHonorsPresetID verifies a reconciler draft identity is kept.
func TestCreateHonorsPresetID(t *testing.T) {
	s := openTestStore(t)

	task := createTestTask()
	task.ID = "draft-identity"
	created, err := s.Create(task)
	require.NoError(t, err)
	assert.Equal(t, "draft-identity", created.ID)
}

// TestUpdate verifies field refresh and source key replacement.
func TestUpdate(t *testing.T) {
	s := openTestStore(t)

	created, err := s.Create(createTestTask())
	require.NoError(t, err)

	created.Status = "Done"
	created.Done = true
	created.Source.Keys["calendar"] = "evt-1"
	updated, err := s.Update(created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	got, err := s.GetByExternalKey(domain.ExtensionGitHub, "https://github.com/acme/widget/issues/1")
	require.NoError(t, err)
	assert.True(t, got.Done)
	assert.Equal(t, "Done", got.Status)
	assert.Equal(t, "evt-1", got.Source.Keys["calendar"])
}

// TestUpdateUnknownID
func TestUpdateUnknownID(t *testing.T) {
	s := openTestStore(t)

	task := createTestTask()
	task.ID = "does-not-exist"
	_, err := s.Update(task)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	task.ID = ""
	_, err = s.Update(task)
	assert.ErrorIs(t, err, ErrMissingID)
}

// TestGetByExternalKeyMiss
func TestGetByExternalKeyMiss(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetByExternalKey(domain.ExtensionGitHub, "https://github.com/none/none/issues/1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// TestDelete verifies removal cascades to source keys and unknown IDs
// are a no-op.
func TestDelete(t *testing.T) {
	s := openTestStore(t)

	created, err := s.Create(createTestTask())
	require.NoError(t, err)

	require.NoError(t, s.Delete(created.ID))
	all, err := s.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = s.GetByExternalKey(domain.ExtensionGitHub, "https://github.com/acme/widget/issues/1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.NoError(t, s.Delete("unknown"))
}
