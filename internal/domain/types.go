// Package domain defines the normalized domain types for TaskSync.
// These types represent the core concepts independent of the GitHub REST API structure.
package domain

import "time"

// ItemKind distinguishes the two remote item variants.
type ItemKind string

const (
	ItemKindIssue       ItemKind = "issue"
	ItemKindPullRequest ItemKind = "pull_request"
)

// Item states as reported by the GitHub REST API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Label is a GitHub issue/PR label.
type Label struct {
	Name  string // Label name (e.g., "bug", "priority: high")
	Color string // Hex color without leading "#"
}

// Ref identifies a branch reference on a pull request.
type Ref struct {
	Name string // Branch name (e.g., "main")
	SHA  string // Commit SHA the ref points at
	Repo string // Repository nameWithOwner, empty if the fork was deleted
}

// Item is a remote GitHub issue or pull request in a normalized format.
// Kind tags the variant; the Merged*/Head/Base fields are only meaningful
// for pull requests. HTMLURL is the stable external identity key.
type Item struct {
	Kind      ItemKind
	ID        int64   // GitHub numeric item ID
	Number    int     // Issue/PR number within the repository
	Title     string  // Item title
	Body      string  // Item body, empty if the API returned null
	State     string  // "open" or "closed"
	Labels    []Label // Labels in API order
	HTMLURL   string  // Canonical web URL, identity key for deduplication
	CreatedAt string  // ISO8601 timestamp
	UpdatedAt string  // ISO8601 timestamp
	ClosedAt  string  // ISO8601 timestamp, empty while open
	MergedAt  string  // ISO8601 timestamp, PRs only, empty if not merged
	Head      Ref     // PR head branch, zero value for issues
	Base      Ref     // PR base branch, zero value for issues
}

// Merged reports whether a pull request has been merged.
func (it Item) Merged() bool {
	return it.MergedAt != ""
}

// ExtensionGitHub tags tasks whose source of truth is a GitHub item.
const ExtensionGitHub = "github"

// Source records where a task originated. Keys maps an integration name
// to that integration's external identity for the task (a task may carry
// several, e.g. both "github" and "obsidian"). Data retains the raw
// remote payload for later re-derivation and display.
type Source struct {
	Extension string
	Keys      map[string]string
	Data      *Item
}

// Task is the local task entity. ID is assigned by the store on create
// and must never change across refresh cycles; derived fields (Status,
// Description, Source.Data) are refreshed from the remote item.
type Task struct {
	ID          string
	Title       string
	Description string
	Category    string
	Status      string
	Priority    string
	Done        bool
	Project     string
	Areas       []string
	Tags        []string
	DoDate      string // Optional, ISO8601 date
	DueDate     string // Optional, ISO8601 date
	Source      Source
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RepoMapping is a configured routing rule from a GitHub organization or
// repository to a target area/project. At least one of Organization and
// Repository must be set, and at least one of TargetArea and TargetProject.
type RepoMapping struct {
	Organization  string `yaml:"organization,omitempty"`
	Repository    string `yaml:"repository,omitempty"` // "owner/repo"
	TargetArea    string `yaml:"target_area,omitempty"`
	TargetProject string `yaml:"target_project,omitempty"`
	Priority      int    `yaml:"priority,omitempty"` // Higher wins, default 0
}

// MatchType classifies how a mapping lookup matched.
type MatchType string

const (
	MatchRepository   MatchType = "repository"
	MatchOrganization MatchType = "organization"
	MatchNone         MatchType = "none"
)

// Resolution is the ephemeral result of a mapping lookup.
type Resolution struct {
	TargetArea    string
	TargetProject string
	Matched       *RepoMapping // The rule that matched, nil when MatchType is MatchNone
	MatchType     MatchType
}

// Status is one entry of the configured status vocabulary.
type Status struct {
	Name         string `yaml:"name"`
	IsDone       bool   `yaml:"is_done,omitempty"`
	IsInProgress bool   `yaml:"is_in_progress,omitempty"`
}

// Priority levels derived from GitHub labels.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)
