package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/tasksync/tasksync/internal/domain"
)

// Sortable task fields.
const (
	FieldTitle     = "title"
	FieldStatus    = "status"
	FieldPriority  = "priority"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// SortKey is one key of a multi-key sort.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders tasks in place by the given keys. Keys are evaluated in
// order with the first non-equal comparison winning; the sort is stable,
// so equal tasks keep their fetch order. Tasks missing a key's value
// sort to the end regardless of direction.
//
// For GitHub-sourced tasks the timestamp fields use the remote
// created_at/updated_at from the retained payload rather than the local
// entity timestamps, since the remote ones are authoritative for
// freshness.
func Sort(tasks []domain.Task, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, key := range keys {
			a, aok := sortValue(tasks[i], key.Field)
			b, bok := sortValue(tasks[j], key.Field)
			if !aok || !bok {
				if aok == bok {
					continue
				}
				// Missing values go last either direction.
				return aok
			}
			if a == b {
				continue
			}
			if key.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
}

// sortValue extracts a comparable string for a field. The second return
// is false when the task has no value for the field.
func sortValue(t domain.Task, field string) (string, bool) {
	switch field {
	case FieldTitle:
		return strings.ToLower(t.Title), t.Title != ""
	case FieldStatus:
		return strings.ToLower(t.Status), t.Status != ""
	case FieldPriority:
		rank, ok := priorityRank(t.Priority)
		return rank, ok
	case FieldCreatedAt:
		return timestamp(t.Source.Data, t.CreatedAt, false)
	case FieldUpdatedAt:
		return timestamp(t.Source.Data, t.UpdatedAt, true)
	}
	return "", false
}

// priorityRank maps priority levels onto ordered keys so that Critical
// sorts above High, High above Medium, and so on.
func priorityRank(priority string) (string, bool) {
	switch priority {
	case domain.PriorityCritical:
		return "3", true
	case domain.PriorityHigh:
		return "2", true
	case domain.PriorityMedium:
		return "1", true
	case domain.PriorityLow:
		return "0", true
	}
	return "", false
}

// timestamp prefers the remote item timestamp when present. ISO8601
// strings compare correctly as plain strings.
func timestamp(data *domain.Item, local time.Time, updated bool) (string, bool) {
	if data != nil {
		remote := data.CreatedAt
		if updated {
			remote = data.UpdatedAt
		}
		if remote != "" {
			return remote, true
		}
	}
	if local.IsZero() {
		return "", false
	}
	return local.UTC().Format(time.RFC3339), true
}

// Filter returns the tasks matching a case-insensitive substring query
// across title, description, and tags. An empty query matches everything.
func Filter(tasks []domain.Task, query string) []domain.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]domain.Task, len(tasks))
		copy(out, tasks)
		return out
	}
	var out []domain.Task
	for _, t := range tasks {
		if matchesQuery(t, query) {
			out = append(out, t)
		}
	}
	return out
}

func matchesQuery(t domain.Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
