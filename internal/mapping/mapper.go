// Package mapping resolves repository identifiers to configured target
// areas/projects. It implements a priority- and specificity-ordered rule
// lookup over a flat list of user-configured mappings.
//
// Mapping is advisory, never blocking: malformed or unmatched input
// degrades to "no mapping" rather than returning an error.
package mapping

import (
	"errors"
	"sort"
	"strings"

	"github.com/tasksync/tasksync/internal/domain"
)

// Validation errors returned by Validate. All checks run independently
// so every violation is reported, not just the first.
var (
	ErrNoSource         = errors.New("mapping must set organization or repository")
	ErrMalformedRepo    = errors.New("repository must be in owner/repo form")
	ErrNoTarget         = errors.New("mapping must set a target area or target project")
	ErrNegativePriority = errors.New("priority must not be negative")
)

// TaskData is the project/area portion of a task that a mapping may
// overwrite.
type TaskData struct {
	Project string
	Areas   []string
}

// Mapper resolves "owner/repo" identifiers against a configured rule set.
// The zero value is usable and resolves everything to MatchNone.
type Mapper struct {
	mappings []domain.RepoMapping
}

// New creates a Mapper with the given initial rule set.
func New(mappings []domain.RepoMapping) *Mapper {
	m := &Mapper{}
	m.SetMappings(mappings)
	return m
}

// SetMappings replaces the active rule set wholesale. The list is copied,
// so later edits by the caller do not affect the mapper.
func (m *Mapper) SetMappings(mappings []domain.RepoMapping) {
	m.mappings = make([]domain.RepoMapping, len(mappings))
	copy(m.mappings, mappings)
}

// Mappings returns a copy of the active rule set.
func (m *Mapper) Mappings() []domain.RepoMapping {
	out := make([]domain.RepoMapping, len(m.mappings))
	copy(out, m.mappings)
	return out
}

// Resolve finds the best-matching rule for a repository identifier.
//
// Rules are ordered by priority descending, then specificity descending
// (a rule naming an explicit repository outranks one naming only an
// organization). The sort is stable: equal priority and specificity fall
// back to configured list order. Matching runs in two passes: exact
// repository rules first, then organization-only rules, so a repository
// rule always beats an organization rule for the same repo regardless of
// priority.
//
// An identifier that is empty or lacks a "/" resolves to MatchNone.
func (m *Mapper) Resolve(repository string) domain.Resolution {
	none := domain.Resolution{MatchType: domain.MatchNone}

	owner, _, ok := strings.Cut(repository, "/")
	if repository == "" || !ok {
		return none
	}

	ordered := make([]domain.RepoMapping, len(m.mappings))
	copy(ordered, m.mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		// Repository rules are more specific than organization rules.
		return ordered[i].Repository != "" && ordered[j].Repository == ""
	})

	// First pass: exact repository match.
	for i := range ordered {
		if ordered[i].Repository == repository {
			return resolution(&ordered[i], domain.MatchRepository)
		}
	}

	// Second pass: organization-level rules. A rule that also names a
	// repository is never treated as an organization match.
	for i := range ordered {
		if ordered[i].Repository == "" && ordered[i].Organization == owner {
			return resolution(&ordered[i], domain.MatchOrganization)
		}
	}

	return none
}

func resolution(rule *domain.RepoMapping, match domain.MatchType) domain.Resolution {
	return domain.Resolution{
		TargetArea:    rule.TargetArea,
		TargetProject: rule.TargetProject,
		Matched:       rule,
		MatchType:     match,
	}
}

// HasMapping reports whether a repository resolves to any rule.
func (m *Mapper) HasMapping(repository string) bool {
	return m.Resolve(repository).MatchType != domain.MatchNone
}

// Enhance applies the resolved mapping for a repository to task data.
// A matched rule's targets overwrite the input: the target project
// replaces the project, and the target area replaces the areas list with
// a single element. The mapping takes precedence over caller-supplied
// values on purpose. With no match, the input is returned unchanged.
func (m *Mapper) Enhance(repository string, data TaskData) TaskData {
	res := m.Resolve(repository)
	if res.MatchType == domain.MatchNone {
		return data
	}
	if res.TargetProject != "" {
		data.Project = res.TargetProject
	}
	if res.TargetArea != "" {
		data.Areas = []string{res.TargetArea}
	}
	return data
}

// Validate checks a single rule and returns every violation found.
// An empty result means the rule is valid.
func Validate(rule domain.RepoMapping) []error {
	var errs []error
	if rule.Organization == "" && rule.Repository == "" {
		errs = append(errs, ErrNoSource)
	}
	if rule.Repository != "" && !strings.Contains(rule.Repository, "/") {
		errs = append(errs, ErrMalformedRepo)
	}
	if rule.TargetArea == "" && rule.TargetProject == "" {
		errs = append(errs, ErrNoTarget)
	}
	if rule.Priority < 0 {
		errs = append(errs, ErrNegativePriority)
	}
	return errs
}

// Add appends a rule to the active set.
func (m *Mapper) Add(rule domain.RepoMapping) {
	m.mappings = append(m.mappings, rule)
}

// Remove deletes the rule at index. Out-of-range indexes are a no-op.
func (m *Mapper) Remove(index int) {
	if index < 0 || index >= len(m.mappings) {
		return
	}
	m.mappings = append(m.mappings[:index], m.mappings[index+1:]...)
}

// Update replaces the rule at index. Out-of-range indexes are a no-op.
func (m *Mapper) Update(index int, rule domain.RepoMapping) {
	if index < 0 || index >= len(m.mappings) {
		return
	}
	m.mappings[index] = rule
}

// ForOrganization returns all rules whose organization equals org.
func (m *Mapper) ForOrganization(org string) []domain.RepoMapping {
	var out []domain.RepoMapping
	for _, rule := range m.mappings {
		if rule.Organization == org {
			out = append(out, rule)
		}
	}
	return out
}

// ForRepository returns the first rule naming the exact repository, or
// nil if none does.
func (m *Mapper) ForRepository(repository string) *domain.RepoMapping {
	for i := range m.mappings {
		if m.mappings[i].Repository == repository {
			rule := m.mappings[i]
			return &rule
		}
	}
	return nil
}
