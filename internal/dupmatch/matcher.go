// Package dupmatch scores prospects against existing accounts to surface
// likely duplicates before a conversion creates a second copy of the same
// company.
package dupmatch

import (
	"net/url"
	"sort"
	"strings"

	"github.com/summitcrm/pipeline-api/internal/domain"
)

// Match type labels, strongest signal first
const (
	MatchTypeDomain = "domain"
	MatchTypePhone  = "phone"
	MatchTypeNameEq = "name_similarity"
	MatchTypeFuzzy  = "fuzzy"
)

// Confidence weights per match type
const (
	domainConfidence = 1.0
	phoneConfidence  = 0.9
	nameEqConfidence = 0.85
	fuzzyWeight      = 0.8
	fuzzyThreshold   = 0.6
	// A fuzzy name match corroborated by a matching city clears a lower bar
	fuzzyLocalThreshold = 0.5
)

// Candidate is the subset of a prospect the matcher compares on. City and
// State never match on their own; they corroborate a fuzzy name match.
type Candidate struct {
	Name    string
	Domain  string
	Website string
	Phone   string
	City    string
	State   string
}

// FromProspect builds a matcher candidate from a prospect
func FromProspect(p *domain.Prospect) Candidate {
	return Candidate{
		Name:    p.Name,
		Domain:  p.Domain,
		Website: p.Website,
		Phone:   p.Phone,
		City:    p.City,
		State:   p.State,
	}
}

// FindMatches scores the candidate against every account and returns matches
// sorted by confidence, highest first. Each account contributes at most one
// match, on its strongest signal.
func FindMatches(candidate Candidate, accounts []domain.Account) []domain.DuplicateMatchDTO {
	cand := normalizedCandidate{
		domain: NormalizeDomain(firstNonEmpty(candidate.Domain, candidate.Website)),
		phone:  NormalizePhone(candidate.Phone),
		name:   NormalizeName(candidate.Name),
		city:   strings.ToLower(strings.TrimSpace(candidate.City)),
		state:  strings.ToLower(strings.TrimSpace(candidate.State)),
	}

	var matches []domain.DuplicateMatchDTO

	for i := range accounts {
		acct := &accounts[i]

		matchType, confidence := scoreAccount(cand, acct)
		if matchType == "" {
			continue
		}

		matches = append(matches, domain.DuplicateMatchDTO{
			AccountID:  acct.ID,
			Name:       acct.Name,
			Domain:     acct.Domain,
			Phone:      acct.Phone,
			City:       acct.City,
			State:      acct.State,
			MatchType:  matchType,
			Confidence: confidence,
		})
	}

	// Highest confidence first; name breaks ties so the order is stable
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Name < matches[j].Name
	})

	return matches
}

type normalizedCandidate struct {
	domain string
	phone  string
	name   string
	city   string
	state  string
}

func scoreAccount(cand normalizedCandidate, acct *domain.Account) (string, float64) {
	acctDomain := NormalizeDomain(firstNonEmpty(acct.Domain, acct.Website))
	if cand.domain != "" && cand.domain == acctDomain {
		return MatchTypeDomain, domainConfidence
	}

	if cand.phone != "" && cand.phone == NormalizePhone(acct.Phone) {
		return MatchTypePhone, phoneConfidence
	}

	acctName := NormalizeName(acct.Name)
	if cand.name != "" && cand.name == acctName {
		return MatchTypeNameEq, nameEqConfidence
	}

	if cand.name != "" && acctName != "" {
		sim := Similarity(cand.name, acctName)
		threshold := fuzzyThreshold
		if sameLocation(cand, acct) {
			threshold = fuzzyLocalThreshold
		}
		if sim >= threshold {
			return MatchTypeFuzzy, fuzzyWeight * sim
		}
	}

	return "", 0
}

// sameLocation reports whether the candidate and account share a city. When
// both sides carry a state it must agree too, so two towns with the same
// name in different states do not corroborate each other.
func sameLocation(cand normalizedCandidate, acct *domain.Account) bool {
	if cand.city == "" {
		return false
	}
	if cand.city != strings.ToLower(strings.TrimSpace(acct.City)) {
		return false
	}
	acctState := strings.ToLower(strings.TrimSpace(acct.State))
	if cand.state != "" && acctState != "" && cand.state != acctState {
		return false
	}
	return true
}

// NormalizeDomain reduces a domain or URL to its bare host form:
// lowercased, scheme and path stripped, leading "www." removed.
func NormalizeDomain(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}

	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		}
	}

	// Strip any path that survived parsing
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}

	// Strip port
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	s = strings.TrimPrefix(s, "www.")
	return s
}

// NormalizePhone strips everything except digits. A leading country code 1
// on an 11-digit number is dropped so US numbers compare equal.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// NormalizeName lowercases, collapses whitespace, and drops common corporate
// suffixes so "Acme Corp." and "ACME" compare equal.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '\'', '"':
			return -1
		}
		return r
	}, s)

	words := strings.Fields(s)
	for len(words) > 1 {
		last := words[len(words)-1]
		if isCorporateSuffix(last) {
			words = words[:len(words)-1]
			continue
		}
		break
	}

	return strings.Join(words, " ")
}

func isCorporateSuffix(w string) bool {
	switch w {
	case "inc", "llc", "ltd", "corp", "corporation", "co", "company", "lp", "llp", "plc", "group", "holdings":
		return true
	}
	return false
}

// Similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)), in [0,1].
// Equal strings score 1; strings with nothing in common approach 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein(ra, rb)
	return 1 - float64(dist)/float64(longest)
}

// levenshtein computes edit distance with a two-row matrix
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
