package gh

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
)

// OwnerType represents whether an owner is an organization or user.
type OwnerType string

const (
	OwnerTypeOrganization OwnerType = "Organization"
	OwnerTypeUser         OwnerType = "User"
)

// Owner represents an owner (user or organization) that can hold
// repositories. Used when configuring repository mappings.
type Owner struct {
	Login string
	ID    string
	Type  OwnerType
}

// GetViewerAndOrgs returns the authenticated user and their
// organizations, the user first. This lets mapping configuration offer
// organization names without the user typing them.
func (c *Client) GetViewerAndOrgs(ctx context.Context) ([]Owner, error) {
	req := graphql.NewRequest(`
		query {
			viewer {
				login
				id
				organizations(first: 100) {
					nodes {
						login
						id
					}
				}
			}
		}
	`)

	var resp struct {
		Viewer struct {
			Login         string `json:"login"`
			ID            string `json:"id"`
			Organizations struct {
				Nodes []struct {
					Login string `json:"login"`
					ID    string `json:"id"`
				} `json:"nodes"`
			} `json:"organizations"`
		} `json:"viewer"`
	}

	if err := c.makeGraphQL(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get viewer and orgs: %w", err)
	}

	owners := make([]Owner, 0, 1+len(resp.Viewer.Organizations.Nodes))
	owners = append(owners, Owner{
		Login: resp.Viewer.Login,
		ID:    resp.Viewer.ID,
		Type:  OwnerTypeUser,
	})
	for _, org := range resp.Viewer.Organizations.Nodes {
		owners = append(owners, Owner{
			Login: org.Login,
			ID:    org.ID,
			Type:  OwnerTypeOrganization,
		})
	}
	return owners, nil
}

// ListRepositories returns the repository identifiers ("owner/repo") of
// an owner, most recently pushed first. Used to suggest candidates for
// repository-level mapping rules.
func (c *Client) ListRepositories(ctx context.Context, login string) ([]string, error) {
	req := graphql.NewRequest(`
		query($login: String!, $first: Int!) {
			repositoryOwner(login: $login) {
				repositories(first: $first, orderBy: {field: PUSHED_AT, direction: DESC}) {
					nodes {
						nameWithOwner
					}
				}
			}
		}
	`)
	req.Var("login", login)
	req.Var("first", 100)

	var resp struct {
		RepositoryOwner *struct {
			Repositories struct {
				Nodes []struct {
					NameWithOwner string `json:"nameWithOwner"`
				} `json:"nodes"`
			} `json:"repositories"`
		} `json:"repositoryOwner"`
	}

	if err := c.makeGraphQL(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	if resp.RepositoryOwner == nil {
		return nil, fmt.Errorf("owner '%s' not found", login)
	}

	repos := make([]string, 0, len(resp.RepositoryOwner.Repositories.Nodes))
	for _, node := range resp.RepositoryOwner.Repositories.Nodes {
		repos = append(repos, node.NameWithOwner)
	}
	return repos, nil
}
