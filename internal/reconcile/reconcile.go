// Package reconcile merges freshly fetched GitHub items with the set of
// already-imported local tasks, producing a deduplicated task list where
// every distinct remote item appears exactly once with a stable identity.
// It owns the in-memory item and draft-identity caches and is safe for
// concurrent use.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tasksync/tasksync/internal/domain"
	"github.com/tasksync/tasksync/internal/transform"
)

// Provider fetches remote items for one repository. Pagination and
// rate-limit handling are the provider's responsibility.
type Provider interface {
	FetchIssues(ctx context.Context, repository string) ([]domain.Item, error)
	FetchPullRequests(ctx context.Context, repository string) ([]domain.Item, error)
}

// TaskStore is the persistence layer for imported tasks. Create assigns
// identity and timestamps; the reconciler never mutates stored tasks on
// refresh, only on explicit import.
type TaskStore interface {
	GetAll() ([]domain.Task, error)
	Create(task domain.Task) (domain.Task, error)
	Update(task domain.Task) (domain.Task, error)
}

// Reconciler combines remote fetches with the local store. Concurrent
// refreshes of the same repository+kind are collapsed into a single
// in-flight fetch; cache writes are guarded by a mutex.
type Reconciler struct {
	provider    Provider
	store       TaskStore
	transformer *transform.Transformer
	logger      *zap.Logger

	mu     sync.Mutex
	drafts map[string]string        // html_url -> synthesized task ID
	items  map[string][]domain.Item // repository+kind -> last fetched items
	group  singleflight.Group
}

// New creates a Reconciler. A nil logger is replaced with a no-op logger.
func New(provider Provider, store TaskStore, transformer *transform.Transformer, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		provider:    provider,
		store:       store,
		transformer: transformer,
		logger:      logger,
		drafts:      make(map[string]string),
		items:       make(map[string][]domain.Item),
	}
}

func cacheKey(repository string, kind domain.ItemKind) string {
	return repository + "#" + string(kind)
}

// Refresh fetches items for a repository+kind and merges them with the
// already-imported tasks for that repository+kind.
//
// On fetch failure the cache entry for the key is reset to empty rather
// than left stale, and the already-imported tasks are returned alongside
// the error so callers can keep them visible while surfacing the failure.
func (r *Reconciler) Refresh(ctx context.Context, repository string, kind domain.ItemKind) ([]domain.Task, error) {
	key := cacheKey(repository, kind)

	v, fetchErr, _ := r.group.Do(key, func() (interface{}, error) {
		items, err := r.fetch(ctx, repository, kind)
		r.mu.Lock()
		if err != nil {
			r.items[key] = nil
		} else {
			r.items[key] = items
		}
		r.mu.Unlock()
		return items, err
	})

	imported, err := r.importedFor(repository, kind)
	if err != nil {
		return nil, fmt.Errorf("load imported tasks: %w", err)
	}

	if fetchErr != nil {
		r.logger.Warn("fetch failed, showing imported tasks only",
			zap.String("repository", repository),
			zap.String("kind", string(kind)),
			zap.Error(fetchErr))
		return imported, fmt.Errorf("fetch %s for %s: %w", kind, repository, fetchErr)
	}

	items, _ := v.([]domain.Item)
	merged, err := r.merge(items, imported, repository)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("refresh complete",
		zap.String("repository", repository),
		zap.String("kind", string(kind)),
		zap.Int("fetched", len(items)),
		zap.Int("merged", len(merged)))
	return merged, nil
}

func (r *Reconciler) fetch(ctx context.Context, repository string, kind domain.ItemKind) ([]domain.Item, error) {
	if kind == domain.ItemKindPullRequest {
		return r.provider.FetchPullRequests(ctx, repository)
	}
	return r.provider.FetchIssues(ctx, repository)
}

// merge produces the final task list in fetch order. Items matching an
// imported task are re-transformed and spliced onto the existing record;
// unmatched items become drafts with a cached stable identity. Imported
// tasks absent from the fetch are appended so they stay visible.
func (r *Reconciler) merge(items []domain.Item, imported []domain.Task, repository string) ([]domain.Task, error) {
	byURL := make(map[string]domain.Task, len(imported))
	for _, t := range imported {
		if url, ok := t.Source.Keys[domain.ExtensionGitHub]; ok {
			byURL[url] = t
		}
	}

	seen := make(map[string]bool, len(items))
	out := make([]domain.Task, 0, len(items))
	for _, item := range items {
		fresh, err := r.transformer.Transform(item, repository)
		if err != nil {
			return nil, err
		}
		if existing, ok := byURL[item.HTMLURL]; ok {
			out = append(out, splice(existing, fresh))
		} else {
			fresh.ID = r.draftID(item.HTMLURL)
			out = append(out, fresh)
		}
		seen[item.HTMLURL] = true
	}

	for _, t := range imported {
		if !seen[t.Source.Keys[domain.ExtensionGitHub]] {
			out = append(out, t)
		}
	}
	return out, nil
}

// splice applies freshly derived fields onto an existing imported task.
// Identity and local timestamps are kept, and source keys the transformer
// did not set (e.g. a link to a local note) are preserved.
func splice(existing, fresh domain.Task) domain.Task {
	merged := fresh
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = existing.UpdatedAt
	for k, v := range existing.Source.Keys {
		if _, ok := merged.Source.Keys[k]; !ok {
			merged.Source.Keys[k] = v
		}
	}
	return merged
}

// draftID returns the synthesized identity for a not-yet-imported item,
// minting one on first sight. The identity stays stable across repeated
// refreshes until the item is imported or the cache is cleared.
func (r *Reconciler) draftID(url string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.drafts[url]; ok {
		return id
	}
	id := uuid.NewString()
	r.drafts[url] = id
	return id
}

// Import persists a task from the merged list. Tasks already present in
// the store are updated in place; drafts are created, keeping their
// synthesized identity so the UI selection does not jump.
func (r *Reconciler) Import(task domain.Task) (domain.Task, error) {
	url := task.Source.Keys[domain.ExtensionGitHub]

	existing, err := r.store.GetAll()
	if err != nil {
		return domain.Task{}, fmt.Errorf("load imported tasks: %w", err)
	}
	for _, t := range existing {
		if url != "" && t.Source.Keys[domain.ExtensionGitHub] == url {
			task.ID = t.ID
			task.CreatedAt = t.CreatedAt
			updated, err := r.store.Update(task)
			if err != nil {
				return domain.Task{}, fmt.Errorf("update task: %w", err)
			}
			return updated, nil
		}
	}

	created, err := r.store.Create(task)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	if url != "" {
		r.mu.Lock()
		delete(r.drafts, url)
		r.mu.Unlock()
	}
	r.logger.Info("task imported",
		zap.String("id", created.ID),
		zap.String("url", url))
	return created, nil
}

// CachedItems returns the last fetched items for a repository+kind, or
// nil if the key has never been fetched or its last fetch failed.
func (r *Reconciler) CachedItems(repository string, kind domain.ItemKind) []domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	cached := r.items[cacheKey(repository, kind)]
	out := make([]domain.Item, len(cached))
	copy(out, cached)
	return out
}

// ClearCache drops all cached items and draft identities. Caches are
// never invalidated implicitly; this is the only way to reset them.
func (r *Reconciler) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = make(map[string]string)
	r.items = make(map[string][]domain.Item)
}

// importedFor returns stored tasks belonging to one repository+kind,
// recognized by their canonical GitHub URL prefix.
func (r *Reconciler) importedFor(repository string, kind domain.ItemKind) ([]domain.Task, error) {
	all, err := r.store.GetAll()
	if err != nil {
		return nil, err
	}
	prefix := itemURLPrefix(repository, kind)
	var out []domain.Task
	for _, t := range all {
		if strings.HasPrefix(t.Source.Keys[domain.ExtensionGitHub], prefix) {
			out = append(out, t)
		}
	}
	return out, nil
}

// itemURLPrefix builds the canonical web URL prefix for items of a kind.
// Issues live under /issues/, pull requests under /pull/.
func itemURLPrefix(repository string, kind domain.ItemKind) string {
	segment := "issues"
	if kind == domain.ItemKindPullRequest {
		segment = "pull"
	}
	return "https://github.com/" + repository + "/" + segment + "/"
}
