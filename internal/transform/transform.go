// Package transform converts remote GitHub items into task drafts.
// The conversion is pure: no persistence, no identity assignment, and
// calling it twice on the same item produces identical content.
package transform

import (
	"errors"
	"strings"

	"github.com/tasksync/tasksync/internal/domain"
	"github.com/tasksync/tasksync/internal/mapping"
)

// ErrNoStatuses indicates the status vocabulary is empty. This is a
// configuration precondition violation, not a data issue: with at least
// one status configured, derivation always falls back to something.
var ErrNoStatuses = errors.New("no task statuses configured")

// FallbackCategory is used when no label matches a configured category.
const FallbackCategory = "Task"

// priorityKeywords maps normalized label names to priority levels.
// First label with a match wins; unmatched items get no priority.
var priorityKeywords = map[string]string{
	"priority: critical": domain.PriorityCritical,
	"priority: high":     domain.PriorityHigh,
	"priority: medium":   domain.PriorityMedium,
	"priority: low":      domain.PriorityLow,
	"critical":           domain.PriorityCritical,
	"urgent":             domain.PriorityCritical,
	"high":               domain.PriorityHigh,
	"medium":             domain.PriorityMedium,
	"low":                domain.PriorityLow,
}

// Transformer derives task drafts from remote items using the configured
// status/category vocabularies and the repository mapper.
type Transformer struct {
	mapper     *mapping.Mapper
	statuses   []domain.Status
	categories []string
}

// New creates a Transformer. The mapper may be nil, in which case no
// project/area enhancement is applied.
func New(mapper *mapping.Mapper, statuses []domain.Status, categories []string) *Transformer {
	return &Transformer{
		mapper:     mapper,
		statuses:   statuses,
		categories: categories,
	}
}

// Transform converts a remote item into a task draft. The draft carries
// no ID or local timestamps; the store assigns those on create.
// Repository may be empty, in which case no project default is set.
//
// Returns ErrNoStatuses if the status vocabulary is empty.
func (t *Transformer) Transform(item domain.Item, repository string) (domain.Task, error) {
	done := isDone(item)

	status, err := t.deriveStatus(done)
	if err != nil {
		return domain.Task{}, err
	}

	data := mapping.TaskData{Project: repository}
	if t.mapper != nil {
		data = t.mapper.Enhance(repository, data)
	}

	raw := item
	return domain.Task{
		Title:       item.Title,
		Description: item.Body,
		Category:    t.deriveCategory(item.Labels),
		Status:      status,
		Priority:    derivePriority(item.Labels),
		Done:        done,
		Project:     data.Project,
		Areas:       data.Areas,
		// GitHub labels are deliberately not copied into tags.
		Tags: []string{},
		Source: domain.Source{
			Extension: domain.ExtensionGitHub,
			Keys:      map[string]string{domain.ExtensionGitHub: item.HTMLURL},
			Data:      &raw,
		},
	}, nil
}

// isDone reports whether an item counts as completed. A merged pull
// request counts even if the feed has not flipped its state to closed.
func isDone(item domain.Item) bool {
	if item.State == domain.StateClosed {
		return true
	}
	return item.Kind == domain.ItemKindPullRequest && item.Merged()
}

// deriveStatus picks a status name from the vocabulary by its flags,
// falling back to the first configured status when no flag matches.
func (t *Transformer) deriveStatus(done bool) (string, error) {
	if len(t.statuses) == 0 {
		return "", ErrNoStatuses
	}
	for _, s := range t.statuses {
		if done && s.IsDone {
			return s.Name, nil
		}
		if !done && !s.IsDone && !s.IsInProgress {
			return s.Name, nil
		}
	}
	return t.statuses[0].Name, nil
}

// deriveCategory returns the configured category matching the first
// matching label, preserving the configured casing.
func (t *Transformer) deriveCategory(labels []domain.Label) string {
	for _, label := range labels {
		for _, category := range t.categories {
			if strings.EqualFold(label.Name, category) {
				return category
			}
		}
	}
	return FallbackCategory
}

// derivePriority returns the priority implied by the first label found
// in the keyword table, or empty for no priority.
func derivePriority(labels []domain.Label) string {
	for _, label := range labels {
		if p, ok := priorityKeywords[strings.ToLower(strings.TrimSpace(label.Name))]; ok {
			return p
		}
	}
	return ""
}
