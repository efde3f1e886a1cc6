package runbook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

func TestResolveTemplateSubstitutesKnownVars(t *testing.T) {
	out := ResolveTemplate("https://wiki/{service}/{name}?host={host}&env={environment}", TemplateVars{
		Service: "billing", Name: "disk-full", Host: "db-1", Environment: "production",
	})
	assert.Equal(t, "https://wiki/billing/disk-full?host=db-1&env=production", out)
}

func TestResolveTemplateLeavesUnknownTokenAndEmptyMissing(t *testing.T) {
	out := ResolveTemplate("https://wiki/{service}/{unknown}", TemplateVars{Service: "api"})
	assert.Equal(t, "https://wiki/api/{unknown}", out)
}

type fakeRules struct {
	rules []domain.RunbookRule
}

func (f fakeRules) ListActive(ctx context.Context) ([]domain.RunbookRule, error) {
	return f.rules, nil
}

func TestFindFirstMatchWinsByPriorityOrder(t *testing.T) {
	rules := fakeRules{rules: []domain.RunbookRule{
		{ServicePattern: "billing*", RunbookURLTemplate: "https://wiki/billing-generic", Priority: 10},
		{ServicePattern: "billing-api", RunbookURLTemplate: "https://wiki/billing-api-specific", Priority: 1},
	}}
	url, found, err := Find(context.Background(), rules, "billing-api", "timeout", "", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://wiki/billing-api-specific", url)
}

func TestFindRequiresNamePatternWhenRuleSetsOne(t *testing.T) {
	rules := fakeRules{rules: []domain.RunbookRule{
		{ServicePattern: "api", NamePattern: "HighCPU", RunbookURLTemplate: "https://wiki/cpu"},
	}}
	_, found, err := Find(context.Background(), rules, "api", "", "", "")
	require.NoError(t, err)
	assert.False(t, found)

	url, found, err := Find(context.Background(), rules, "api", "HighCPU", "", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://wiki/cpu", url)
}

func TestFindReturnsFalseWhenNoRuleMatches(t *testing.T) {
	rules := fakeRules{rules: []domain.RunbookRule{
		{ServicePattern: "billing", RunbookURLTemplate: "https://wiki/billing"},
	}}
	_, found, err := Find(context.Background(), rules, "checkout", "", "", "")
	require.NoError(t, err)
	assert.False(t, found)
}
