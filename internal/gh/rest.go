package gh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tasksync/tasksync/internal/domain"
)

// ErrBadRepository indicates a repository identifier is not "owner/repo".
var ErrBadRepository = errors.New("repository must be in owner/repo form")

// APIError is a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode    int
	Message       string // GitHub's error message, if any
	RateRemaining string // X-RateLimit-Remaining header, if present
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api: status %d", e.StatusCode)
}

// apiLabel mirrors the REST label object.
type apiLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// apiIssue mirrors the fields of the REST issue object TaskSync consumes.
// The issues endpoint also returns pull requests; those carry a
// pull_request key and are filtered out.
type apiIssue struct {
	ID          int64      `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        *string    `json:"body"`
	State       string     `json:"state"`
	Labels      []apiLabel `json:"labels"`
	HTMLURL     string     `json:"html_url"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
	ClosedAt    *string    `json:"closed_at"`
	PullRequest *struct{}  `json:"pull_request"`
}

// apiRef mirrors the head/base branch object on a pull request.
type apiRef struct {
	Ref  string `json:"ref"`
	SHA  string `json:"sha"`
	Repo *struct {
		FullName string `json:"full_name"`
	} `json:"repo"`
}

// apiPull mirrors the fields of the REST pull request object.
type apiPull struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      *string    `json:"body"`
	State     string     `json:"state"`
	Labels    []apiLabel `json:"labels"`
	HTMLURL   string     `json:"html_url"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
	ClosedAt  *string    `json:"closed_at"`
	MergedAt  *string    `json:"merged_at"`
	Head      apiRef     `json:"head"`
	Base      apiRef     `json:"base"`
}

// FetchIssues fetches all issues for a repository, in API order, across
// all pages. Pull requests returned by the issues endpoint are excluded.
func (c *Client) FetchIssues(ctx context.Context, repository string) ([]domain.Item, error) {
	if !strings.Contains(repository, "/") {
		return nil, fmt.Errorf("%w: %q", ErrBadRepository, repository)
	}

	url := fmt.Sprintf("%s/repos/%s/issues?state=all&per_page=100", c.baseURL, repository)
	var items []domain.Item
	for url != "" {
		var page []apiIssue
		next, err := c.getPage(ctx, url, &page)
		if err != nil {
			return nil, fmt.Errorf("fetch issues for %s: %w", repository, err)
		}
		for _, raw := range page {
			if raw.PullRequest != nil {
				continue
			}
			item, err := issueToItem(raw)
			if err != nil {
				return nil, fmt.Errorf("fetch issues for %s: %w", repository, err)
			}
			items = append(items, item)
		}
		url = next
	}
	c.logger.Debug("fetched issues",
		zap.String("repository", repository),
		zap.Int("count", len(items)))
	return items, nil
}

// FetchPullRequests fetches all pull requests for a repository, in API
// order, across all pages.
func (c *Client) FetchPullRequests(ctx context.Context, repository string) ([]domain.Item, error) {
	if !strings.Contains(repository, "/") {
		return nil, fmt.Errorf("%w: %q", ErrBadRepository, repository)
	}

	url := fmt.Sprintf("%s/repos/%s/pulls?state=all&per_page=100", c.baseURL, repository)
	var items []domain.Item
	for url != "" {
		var page []apiPull
		next, err := c.getPage(ctx, url, &page)
		if err != nil {
			return nil, fmt.Errorf("fetch pull requests for %s: %w", repository, err)
		}
		for _, raw := range page {
			item, err := pullToItem(raw)
			if err != nil {
				return nil, fmt.Errorf("fetch pull requests for %s: %w", repository, err)
			}
			items = append(items, item)
		}
		url = next
	}
	c.logger.Debug("fetched pull requests",
		zap.String("repository", repository),
		zap.Int("count", len(items)))
	return items, nil
}

// getPage performs one authenticated GET, decodes the JSON body into out,
// and returns the rel="next" URL from the Link header, if any.
func (c *Client) getPage(ctx context.Context, url string, out interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			StatusCode:    resp.StatusCode,
			RateRemaining: resp.Header.Get("X-RateLimit-Remaining"),
		}
		var ghMsg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &ghMsg) == nil {
			apiErr.Message = ghMsg.Message
		}
		return "", apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return nextLink(resp.Header.Get("Link")), nil
}

// nextLink extracts the rel="next" URL from a Link header, returning ""
// on the last page.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		url := strings.TrimSpace(section[0])
		return strings.Trim(url, "<>")
	}
	return ""
}

// issueToItem validates and normalizes a REST issue.
func issueToItem(raw apiIssue) (domain.Item, error) {
	if err := validateRequired(raw.HTMLURL, raw.State, raw.Number); err != nil {
		return domain.Item{}, err
	}
	return domain.Item{
		Kind:      domain.ItemKindIssue,
		ID:        raw.ID,
		Number:    raw.Number,
		Title:     raw.Title,
		Body:      deref(raw.Body),
		State:     raw.State,
		Labels:    toLabels(raw.Labels),
		HTMLURL:   raw.HTMLURL,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
		ClosedAt:  deref(raw.ClosedAt),
	}, nil
}

// pullToItem validates and normalizes a REST pull request.
func pullToItem(raw apiPull) (domain.Item, error) {
	if err := validateRequired(raw.HTMLURL, raw.State, raw.Number); err != nil {
		return domain.Item{}, err
	}
	return domain.Item{
		Kind:      domain.ItemKindPullRequest,
		ID:        raw.ID,
		Number:    raw.Number,
		Title:     raw.Title,
		Body:      deref(raw.Body),
		State:     raw.State,
		Labels:    toLabels(raw.Labels),
		HTMLURL:   raw.HTMLURL,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
		ClosedAt:  deref(raw.ClosedAt),
		MergedAt:  deref(raw.MergedAt),
		Head:      toRef(raw.Head),
		Base:      toRef(raw.Base),
	}, nil
}

// validateRequired rejects items missing the fields TaskSync relies on.
// html_url is the identity key; an unknown state would corrupt done
// derivation downstream.
func validateRequired(htmlURL, state string, number int) error {
	if htmlURL == "" {
		return fmt.Errorf("item #%d: missing html_url", number)
	}
	if state != domain.StateOpen && state != domain.StateClosed {
		return fmt.Errorf("item #%d: unknown state %q", number, state)
	}
	return nil
}

func toLabels(raw []apiLabel) []domain.Label {
	labels := make([]domain.Label, 0, len(raw))
	for _, l := range raw {
		labels = append(labels, domain.Label{Name: l.Name, Color: l.Color})
	}
	return labels
}

func toRef(raw apiRef) domain.Ref {
	ref := domain.Ref{Name: raw.Ref, SHA: raw.SHA}
	if raw.Repo != nil {
		ref.Repo = raw.Repo.FullName
	}
	return ref
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
