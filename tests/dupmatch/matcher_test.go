package dupmatch_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/dupmatch"
)

func testAccount(name string, mutate func(*domain.Account)) domain.Account {
	acct := domain.Account{
		TenantID: "test-tenant",
		Name:     name,
	}
	acct.ID = uuid.New()
	if mutate != nil {
		mutate(&acct)
	}
	return acct
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"globex.com", "globex.com"},
		{"GLOBEX.COM", "globex.com"},
		{"www.globex.com", "globex.com"},
		{"https://www.globex.com/contact?ref=x", "globex.com"},
		{"http://globex.com:8080", "globex.com"},
		{"globex.com/about", "globex.com"},
		{"  globex.com  ", "globex.com"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, dupmatch.NormalizeDomain(tc.input), "input %q", tc.input)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(555) 123-4567", "5551234567"},
		{"555.123.4567", "5551234567"},
		{"+1 555 123 4567", "5551234567"},
		{"15551234567", "5551234567"},
		{"+47 22 33 44 55", "4722334455"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, dupmatch.NormalizePhone(tc.input), "input %q", tc.input)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme Corp.", "acme"},
		{"ACME", "acme"},
		{"Acme Holdings, Inc.", "acme"},
		{"Globex   Property  Group", "globex property"},
		{"O'Brien Facilities LLC", "obrien facilities"},
		{"Company", "company"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, dupmatch.NormalizeName(tc.input), "input %q", tc.input)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, dupmatch.Similarity("globex", "globex"))
	assert.Equal(t, 1.0, dupmatch.Similarity("", ""))
	assert.Equal(t, 0.0, dupmatch.Similarity("abc", "xyz"))

	// one substitution over six runes
	assert.InDelta(t, 5.0/6.0, dupmatch.Similarity("globex", "globax"), 0.001)

	// shorter against longer scales by the longer length
	assert.InDelta(t, 0.5, dupmatch.Similarity("ab", "abcd"), 0.001)
}

func TestFindMatches_DomainMatch(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Globex Industries", func(a *domain.Account) {
			a.Domain = "globex.com"
			a.City = "Portland"
			a.State = "OR"
		}),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{
		Name:    "Totally Different Name",
		Website: "https://www.globex.com/",
	}, accounts)

	require.Len(t, matches, 1)
	assert.Equal(t, dupmatch.MatchTypeDomain, matches[0].MatchType)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.Equal(t, accounts[0].ID, matches[0].AccountID)
	assert.Equal(t, "Portland", matches[0].City)
}

func TestFindMatches_PhoneMatch(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Initech", func(a *domain.Account) {
			a.Phone = "+1 (555) 867-5309"
		}),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{
		Name:  "Unrelated Company",
		Phone: "555.867.5309",
	}, accounts)

	require.Len(t, matches, 1)
	assert.Equal(t, dupmatch.MatchTypePhone, matches[0].MatchType)
	assert.Equal(t, 0.9, matches[0].Confidence)
}

func TestFindMatches_NameEquality(t *testing.T) {
	accounts := []domain.Account{
		testAccount("ACME Holdings, Inc.", nil),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{Name: "Acme Corp"}, accounts)

	require.Len(t, matches, 1)
	assert.Equal(t, dupmatch.MatchTypeNameEq, matches[0].MatchType)
	assert.Equal(t, 0.85, matches[0].Confidence)
}

func TestFindMatches_FuzzyName(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Globex Propertis", nil),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{Name: "Globex Properties"}, accounts)

	require.Len(t, matches, 1)
	assert.Equal(t, dupmatch.MatchTypeFuzzy, matches[0].MatchType)
	assert.Less(t, matches[0].Confidence, 0.85)
	assert.Greater(t, matches[0].Confidence, 0.6*0.8)
}

func TestFindMatches_BelowFuzzyThreshold(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Completely Unrelated Business", nil),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{Name: "Globex"}, accounts)
	assert.Empty(t, matches)
}

func TestFindMatches_CityCorroboratesFuzzyName(t *testing.T) {
	// "riverside" vs "riverbend" sits between the local and default
	// fuzzy thresholds, so the match only reports when the city agrees
	accounts := []domain.Account{
		testAccount("Riverbend Holdings", func(a *domain.Account) {
			a.City = "Portland"
			a.State = "OR"
		}),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{Name: "Riverside"}, accounts)
	assert.Empty(t, matches)

	matches = dupmatch.FindMatches(dupmatch.Candidate{
		Name: "Riverside",
		City: "portland",
	}, accounts)
	require.Len(t, matches, 1)
	assert.Equal(t, dupmatch.MatchTypeFuzzy, matches[0].MatchType)
	assert.InDelta(t, 0.8*(1.0-4.0/9.0), matches[0].Confidence, 0.001)
}

func TestFindMatches_ConflictingStateBlocksCorroboration(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Riverbend Holdings", func(a *domain.Account) {
			a.City = "Portland"
			a.State = "OR"
		}),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{
		Name:  "Riverside",
		City:  "Portland",
		State: "ME",
	}, accounts)
	assert.Empty(t, matches)
}

func TestFindMatches_StrongestSignalWins(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Globex", func(a *domain.Account) {
			a.Domain = "globex.com"
			a.Phone = "555-123-4567"
		}),
	}

	// domain, phone, and exact name all line up; only the domain match reports
	matches := dupmatch.FindMatches(dupmatch.Candidate{
		Name:   "Globex",
		Domain: "globex.com",
		Phone:  "555-123-4567",
	}, accounts)

	require.Len(t, matches, 1)
	assert.Equal(t, dupmatch.MatchTypeDomain, matches[0].MatchType)
}

func TestFindMatches_SortedByConfidence(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Globex Propertis", nil),
		testAccount("Globex Properties LLC", nil),
		testAccount("Globex Props", func(a *domain.Account) {
			a.Domain = "globexproperties.com"
		}),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{
		Name:   "Globex Properties",
		Domain: "globexproperties.com",
	}, accounts)

	require.Len(t, matches, 3)
	assert.Equal(t, dupmatch.MatchTypeDomain, matches[0].MatchType)
	assert.Equal(t, dupmatch.MatchTypeNameEq, matches[1].MatchType)
	assert.Equal(t, dupmatch.MatchTypeFuzzy, matches[2].MatchType)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
}

func TestFindMatches_TieBreaksByName(t *testing.T) {
	// both normalize to "acme", so both score as exact name matches
	accounts := []domain.Account{
		testAccount("Acme Inc", nil),
		testAccount("Acme Corp", nil),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{Name: "ACME"}, accounts)

	require.Len(t, matches, 2)
	assert.Equal(t, "Acme Corp", matches[0].Name)
	assert.Equal(t, "Acme Inc", matches[1].Name)
}

func TestFindMatches_EmptyCandidate(t *testing.T) {
	accounts := []domain.Account{
		testAccount("Globex", func(a *domain.Account) {
			a.Domain = "globex.com"
		}),
	}

	matches := dupmatch.FindMatches(dupmatch.Candidate{}, accounts)
	assert.Empty(t, matches)
}

func TestFromProspect(t *testing.T) {
	p := &domain.Prospect{
		Name:    "Globex",
		Domain:  "globex.com",
		Website: "https://globex.com",
		Phone:   "555-123-4567",
		City:    "Springfield",
		State:   "IL",
	}

	c := dupmatch.FromProspect(p)
	assert.Equal(t, "Globex", c.Name)
	assert.Equal(t, "globex.com", c.Domain)
	assert.Equal(t, "https://globex.com", c.Website)
	assert.Equal(t, "555-123-4567", c.Phone)
	assert.Equal(t, "Springfield", c.City)
	assert.Equal(t, "IL", c.State)
}
