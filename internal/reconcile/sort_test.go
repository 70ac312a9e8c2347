package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tasksync/tasksync/internal/domain"
)

func titlesOf(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

// TestSortMultiKey verifies keys are evaluated in order with the first
// non-equal comparison winning.
func TestSortMultiKey(t *testing.T) {
	tasks := []domain.Task{
		{Title: "b", Status: "Todo"},
		{Title: "a", Status: "Done"},
		{Title: "c", Status: "Todo"},
	}

	Sort(tasks, []SortKey{
		{Field: FieldStatus},
		{Field: FieldTitle, Desc: true},
	})

	assert.Equal(t, []string{"a", "c", "b"}, titlesOf(tasks))
}

// TestSortMissingValuesLast verifies nil/absent values sort to the end
// regardless of direction.
func TestSortMissingValuesLast(t *testing.T) {
	tasks := []domain.Task{
		{Title: "none"},
		{Title: "high", Priority: domain.PriorityHigh},
		{Title: "low", Priority: domain.PriorityLow},
	}

	Sort(tasks, []SortKey{{Field: FieldPriority, Desc: true}})
	assert.Equal(t, []string{"high", "low", "none"}, titlesOf(tasks))

	Sort(tasks, []SortKey{{Field: FieldPriority}})
	assert.Equal(t, []string{"low", "high", "none"}, titlesOf(tasks))
}

// TestSortUsesRemoteTimestamps verifies GitHub-sourced tasks sort on the
// authoritative remote updated_at, not the local entity timestamp.
func TestSortUsesRemoteTimestamps(t *testing.T) {
	local := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	older := domain.Item{UpdatedAt: "2026-01-01T00:00:00Z"}
	newer := domain.Item{UpdatedAt: "2026-03-01T00:00:00Z"}

	tasks := []domain.Task{
		// Local timestamp says this one is fresher, but the remote
		// payload says otherwise.
		{Title: "stale", UpdatedAt: local, Source: domain.Source{Data: &older}},
		{Title: "fresh", UpdatedAt: local.Add(-time.Hour), Source: domain.Source{Data: &newer}},
	}

	Sort(tasks, []SortKey{{Field: FieldUpdatedAt, Desc: true}})
	assert.Equal(t, []string{"fresh", "stale"}, titlesOf(tasks))
}

// TestSortStable verifies equal tasks keep their fetch order.
func TestSortStable(t *testing.T) {
	tasks := []domain.Task{
		{Title: "first", Status: "Todo"},
		{Title: "second", Status: "Todo"},
		{Title: "third", Status: "Todo"},
	}

	Sort(tasks, []SortKey{{Field: FieldStatus}})
	assert.Equal(t, []string{"first", "second", "third"}, titlesOf(tasks))
}

// TestSortNoKeys verifies an empty key list leaves order untouched.
func TestSortNoKeys(t *testing.T) {
	tasks := []domain.Task{{Title: "b"}, {Title: "a"}}
	Sort(tasks, nil)
	assert.Equal(t, []string{"b", "a"}, titlesOf(tasks))
}

// TestFilter verifies case-insensitive substring matching across title,
// description, and tags.
func TestFilter(t *testing.T) {
	tasks := []domain.Task{
		{Title: "Fix login crash"},
		{Title: "Docs", Description: "update the LOGIN guide"},
		{Title: "Chore", Tags: []string{"login-flow"}},
		{Title: "Unrelated"},
	}

	assert.Len(t, Filter(tasks, "login"), 3)
	assert.Len(t, Filter(tasks, "LOGIN"), 3)
	assert.Len(t, Filter(tasks, "nothing"), 0)

	// Empty query matches everything.
	assert.Len(t, Filter(tasks, ""), 4)
	assert.Len(t, Filter(tasks, "   "), 4)
}
