package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a fixed result.
type stubProvider struct {
	name  string
	token string
	err   error
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) GetToken() (string, error) {
	return s.token, s.err
}

// TestEnvProvider verifies reading a token from the environment.
func TestEnvProvider(t *testing.T) {
	t.Setenv("TEST_TOKEN_VAR", "ghp_secret")
	p := EnvProvider{Var: "TEST_TOKEN_VAR"}

	token, err := p.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", token)
}

// TestEnvProviderEmpty verifies unset and whitespace-only variables fail.
func TestEnvProviderEmpty(t *testing.T) {
	t.Setenv("TEST_TOKEN_VAR", "")
	_, err := EnvProvider{Var: "TEST_TOKEN_VAR"}.GetToken()
	assert.Error(t, err)

	t.Setenv("TEST_TOKEN_VAR", "   ")
	_, err = EnvProvider{Var: "TEST_TOKEN_VAR"}.GetToken()
	assert.Error(t, err)
}

// TestFromChainFirstWins verifies the chain stops at the first provider
// that yields a token.
func TestFromChainFirstWins(t *testing.T) {
	token, err := FromChain([]TokenProvider{
		stubProvider{name: "a", err: errors.New("no token")},
		stubProvider{name: "b", token: "from-b"},
		stubProvider{name: "c", token: "from-c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-b", token)
}

// TestFromChainAllFail verifies the combined error names every source.
func TestFromChainAllFail(t *testing.T) {
	_, err := FromChain([]TokenProvider{
		stubProvider{name: "gh CLI", err: errors.New("not installed")},
		stubProvider{name: "GITHUB_TOKEN", err: errors.New("not set")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gh CLI")
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

// TestDefaultChainOrder verifies the documented provider order.
func TestDefaultChainOrder(t *testing.T) {
	chain := DefaultChain()
	require.Len(t, chain, 3)
	assert.Equal(t, "gh CLI", chain[0].Name())
	assert.Equal(t, "GITHUB_TOKEN", chain[1].Name())
	assert.Equal(t, "GH_TOKEN", chain[2].Name())
}
