package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasksync/tasksync/internal/domain"
)

// Test fixtures
func createTestMappings() []domain.RepoMapping {
	return []domain.RepoMapping{
		{
			Repository:    "microsoft/vscode",
			TargetArea:    "VSCode Dev",
			TargetProject: "VSCode Core",
			Priority:      2,
		},
		{
			Organization:  "microsoft",
			TargetArea:    "MS Projects",
			TargetProject: "Microsoft",
			Priority:      1,
		},
	}
}

// TestResolveRepositoryMatch verifies exact-repository rules win.
func TestResolveRepositoryMatch(t *testing.T) {
	m := New(createTestMappings())

	res := m.Resolve("microsoft/vscode")
	assert.Equal(t, domain.MatchRepository, res.MatchType)
	assert.Equal(t, "VSCode Dev", res.TargetArea)
	assert.Equal(t, "VSCode Core", res.TargetProject)
	require.NotNil(t, res.Matched)
	assert.Equal(t, "microsoft/vscode", res.Matched.Repository)
}

// TestResolveOrganizationMatch verifies fallback to organization rules.
func TestResolveOrganizationMatch(t *testing.T) {
	m := New(createTestMappings())

	res := m.Resolve("microsoft/other-repo")
	assert.Equal(t, domain.MatchOrganization, res.MatchType)
	assert.Equal(t, "MS Projects", res.TargetArea)
	assert.Equal(t, "Microsoft", res.TargetProject)
}

// TestResolveNoMatch verifies unmatched repositories resolve to none.
func TestResolveNoMatch(t *testing.T) {
	m := New(createTestMappings())

	res := m.Resolve("other/repo")
	assert.Equal(t, domain.MatchNone, res.MatchType)
	assert.Empty(t, res.TargetArea)
	assert.Empty(t, res.TargetProject)
	assert.Nil(t, res.Matched)
}

// TestResolveMalformedInput verifies soft-fail on malformed identifiers:
// no error, just MatchNone.
func TestResolveMalformedInput(t *testing.T) {
	m := New(createTestMappings())

	assert.Equal(t, domain.MatchNone, m.Resolve("").MatchType)
	assert.Equal(t, domain.MatchNone, m.Resolve("no-slash").MatchType)
}

// TestRepositoryRuleBeatsHigherPriorityOrgRule verifies specificity is
// checked in a separate earlier pass: a priority:0 repository rule wins
// over a priority:5 organization rule for the same repository.
func TestRepositoryRuleBeatsHigherPriorityOrgRule(t *testing.T) {
	m := New([]domain.RepoMapping{
		{Organization: "acme", TargetProject: "Org Project", Priority: 5},
		{Repository: "acme/widget", TargetProject: "Widget", Priority: 0},
	})

	res := m.Resolve("acme/widget")
	assert.Equal(t, domain.MatchRepository, res.MatchType)
	assert.Equal(t, "Widget", res.TargetProject)
}

// TestOrgRuleWithRepositoryFieldNeverOrgMatches verifies a rule naming
// both fields is not usable as an organization-level match.
func TestOrgRuleWithRepositoryFieldNeverOrgMatches(t *testing.T) {
	m := New([]domain.RepoMapping{
		{Organization: "acme", Repository: "acme/widget", TargetProject: "Widget"},
	})

	assert.Equal(t, domain.MatchRepository, m.Resolve("acme/widget").MatchType)
	assert.Equal(t, domain.MatchNone, m.Resolve("acme/other").MatchType)
}

// TestResolvePriorityOrdering verifies that within a specificity tier,
// higher priority wins.
func TestResolvePriorityOrdering(t *testing.T) {
	m := New([]domain.RepoMapping{
		{Organization: "acme", TargetProject: "Low", Priority: 1},
		{Organization: "acme", TargetProject: "High", Priority: 3},
	})

	res := m.Resolve("acme/anything")
	assert.Equal(t, "High", res.TargetProject)
}

// TestResolveStableTieBreak verifies equal priority and specificity fall
// back to configured list order.
func TestResolveStableTieBreak(t *testing.T) {
	m := New([]domain.RepoMapping{
		{Organization: "acme", TargetProject: "First", Priority: 1},
		{Organization: "acme", TargetProject: "Second", Priority: 1},
	})

	res := m.Resolve("acme/anything")
	assert.Equal(t, "First", res.TargetProject)
}

// TestHasMapping
func TestHasMapping(t *testing.T) {
	m := New(createTestMappings())

	assert.True(t, m.HasMapping("microsoft/vscode"))
	assert.True(t, m.HasMapping("microsoft/anything"))
	assert.False(t, m.HasMapping("other/repo"))
	assert.False(t, m.HasMapping("garbage"))
}

// TestEnhanceOverwrites verifies a matched mapping overwrites, not
// merges, the caller-supplied project and areas.
func TestEnhanceOverwrites(t *testing.T) {
	m := New(createTestMappings())

	out := m.Enhance("microsoft/vscode", TaskData{
		Project: "caller project",
		Areas:   []string{"a", "b"},
	})
	assert.Equal(t, "VSCode Core", out.Project)
	assert.Equal(t, []string{"VSCode Dev"}, out.Areas)
}

// TestEnhanceNoMatchPassthrough verifies unmatched input is unchanged.
func TestEnhanceNoMatchPassthrough(t *testing.T) {
	m := New(createTestMappings())

	in := TaskData{Project: "keep", Areas: []string{"keep-area"}}
	out := m.Enhance("other/repo", in)
	assert.Equal(t, in, out)
}

// TestEnhanceIdempotent verifies applying Enhance twice equals once.
func TestEnhanceIdempotent(t *testing.T) {
	m := New(createTestMappings())

	once := m.Enhance("microsoft/vscode", TaskData{Project: "x"})
	twice := m.Enhance("microsoft/vscode", once)
	assert.Equal(t, once, twice)
}

// TestEnhancePartialTargets verifies a rule with only one target leaves
// the other input field alone.
func TestEnhancePartialTargets(t *testing.T) {
	m := New([]domain.RepoMapping{
		{Organization: "acme", TargetArea: "Acme Area"},
	})

	out := m.Enhance("acme/tool", TaskData{Project: "keep", Areas: []string{"old"}})
	assert.Equal(t, "keep", out.Project)
	assert.Equal(t, []string{"Acme Area"}, out.Areas)
}

// TestValidate verifies all violations are reported independently.
func TestValidate(t *testing.T) {
	// Valid rule
	assert.Empty(t, Validate(domain.RepoMapping{
		Organization: "acme", TargetArea: "Area",
	}))

	// Every check violated at once
	errs := Validate(domain.RepoMapping{Priority: -1})
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, ErrNoSource)
	assert.Contains(t, errs, ErrNoTarget)
	assert.Contains(t, errs, ErrNegativePriority)

	// Repository without a slash
	errs = Validate(domain.RepoMapping{Repository: "noslash", TargetArea: "Area"})
	assert.Equal(t, []error{ErrMalformedRepo}, errs)
}

// TestCRUDHelpers verifies list operations and out-of-range no-ops.
func TestCRUDHelpers(t *testing.T) {
	m := New(nil)

	m.Add(domain.RepoMapping{Organization: "acme", TargetArea: "A"})
	m.Add(domain.RepoMapping{Repository: "acme/widget", TargetProject: "W"})
	assert.Len(t, m.Mappings(), 2)

	m.Update(0, domain.RepoMapping{Organization: "acme", TargetArea: "B"})
	assert.Equal(t, "B", m.Mappings()[0].TargetArea)

	// Out-of-range indexes are no-ops
	m.Update(9, domain.RepoMapping{})
	m.Remove(-1)
	m.Remove(9)
	assert.Len(t, m.Mappings(), 2)

	assert.Len(t, m.ForOrganization("acme"), 1)
	require.NotNil(t, m.ForRepository("acme/widget"))
	assert.Nil(t, m.ForRepository("acme/unknown"))

	m.Remove(0)
	assert.Len(t, m.Mappings(), 1)
	assert.Equal(t, "acme/widget", m.Mappings()[0].Repository)
}

// TestSetMappingsReplacesWholesale verifies no merge with prior state.
func TestSetMappingsReplacesWholesale(t *testing.T) {
	m := New(createTestMappings())

	m.SetMappings([]domain.RepoMapping{
		{Organization: "newcorp", TargetArea: "New"},
	})
	assert.Len(t, m.Mappings(), 1)
	assert.False(t, m.HasMapping("microsoft/vscode"))
	assert.True(t, m.HasMapping("newcorp/anything"))
}
