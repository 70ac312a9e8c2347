// Package gh provides GitHub API clients for TaskSync: a REST v3 client
// for fetching issues and pull requests, and a GraphQL client used for
// discovering organizations and repositories when configuring mappings.
package gh

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	"github.com/tasksync/tasksync/internal/auth"
)

const defaultBaseURL = "https://api.github.com"

// Client is a GitHub API client. It implements the reconcile.Provider
// interface via FetchIssues and FetchPullRequests.
type Client struct {
	httpClient *http.Client
	gql        *graphql.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// New creates a client, obtaining an authentication token via the auth
// package. Returns an error if token retrieval fails. A nil logger is
// replaced with a no-op logger.
func New(logger *zap.Logger) (*Client, error) {
	token, err := auth.GetToken()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain GitHub token: %w", err)
	}
	return NewWithToken(token, logger), nil
}

// NewWithToken creates a client with an explicit token.
func NewWithToken(token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gql:        graphql.NewClient(defaultBaseURL + "/graphql"),
		baseURL:    defaultBaseURL,
		token:      token,
		logger:     logger,
	}
}

// makeGraphQL executes a GraphQL request with authentication.
func (c *Client) makeGraphQL(ctx context.Context, req *graphql.Request, resp interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.gql.Run(ctx, req, resp)
}
