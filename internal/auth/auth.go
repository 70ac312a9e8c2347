// Package auth provides GitHub authentication token management.
// Tokens are resolved through an ordered provider chain: the gh CLI
// first, then well-known environment variables.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// TokenProvider obtains a GitHub authentication token from one source.
type TokenProvider interface {
	GetToken() (string, error)
	Name() string
}

// GhCliProvider shells out to `gh auth token`. Preferred because it
// respects the user's gh CLI authentication state.
type GhCliProvider struct{}

// Name identifies the provider in error messages.
func (GhCliProvider) Name() string { return "gh CLI" }

// GetToken runs `gh auth token` and returns its output.
func (GhCliProvider) GetToken() (string, error) {
	cmd := exec.Command("gh", "auth", "token", "--hostname", "github.com")
	output, err := cmd.Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", errors.New("gh CLI not found in PATH")
		}
		return "", fmt.Errorf("gh auth token failed: %w", err)
	}
	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("gh auth token returned empty token")
	}
	return token, nil
}

// EnvProvider reads a token from a named environment variable.
type EnvProvider struct {
	Var string
}

// Name identifies the provider in error messages.
func (e EnvProvider) Name() string { return e.Var }

// GetToken reads the configured environment variable.
func (e EnvProvider) GetToken() (string, error) {
	token := strings.TrimSpace(os.Getenv(e.Var))
	if token == "" {
		return "", fmt.Errorf("%s not set or empty", e.Var)
	}
	return token, nil
}

// DefaultChain is the provider order used by GetToken.
func DefaultChain() []TokenProvider {
	return []TokenProvider{
		GhCliProvider{},
		EnvProvider{Var: "GITHUB_TOKEN"},
		EnvProvider{Var: "GH_TOKEN"},
	}
}

// GetToken tries each provider in the default chain and returns the
// first token found. When every provider fails, the combined error names
// each source so the user knows what to fix.
func GetToken() (string, error) {
	return FromChain(DefaultChain())
}

// FromChain resolves a token from an explicit provider chain.
func FromChain(providers []TokenProvider) (string, error) {
	var failures []string
	for _, p := range providers {
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
	}
	return "", fmt.Errorf(
		"failed to obtain GitHub token (%s).\n"+
			"Please either:\n"+
			"  1. Run 'gh auth login' to authenticate with GitHub CLI, or\n"+
			"  2. Set the GITHUB_TOKEN or GH_TOKEN environment variable",
		strings.Join(failures, "; "),
	)
}
