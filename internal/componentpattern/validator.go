package componentpattern

import (
	"log/slog"
	"sort"

	"github.com/petrarca/composition-scanner/internal/scanner/matchers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Claim is the set of files a component identity owns
type Claim struct {
	Pattern *types.ComponentPatternData
	// Files maps a file relative to the scan root to its path relative to
	// the anchor root the claim was computed from
	Files map[string]string
}

// ClaimsFromMatches groups matches by qualifier. Occurrences of the same
// component at several anchor roots are unioned into one claim.
func ClaimsFromMatches(matches []*Match) map[string]*Claim {
	claims := make(map[string]*Claim)
	for _, m := range matches {
		q := m.Pattern.Qualifier()
		c, ok := claims[q]
		if !ok {
			c = &Claim{Pattern: m.Pattern, Files: make(map[string]string)}
			claims[q] = c
		}
		for f, rel := range m.Claimed {
			c.Files[f] = rel
		}
	}
	return claims
}

// Subset records a child claim that was contained in its parent
type Subset struct {
	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// ValidationResult is the outcome of resolving overlapping claims
type ValidationResult struct {
	// Claims holds the resolved file set per qualifier
	Claims map[string][]string `json:"claims,omitempty" yaml:"claims,omitempty"`
	// Subsets lists the child claims removed from their parent
	Subsets []Subset `json:"subsets,omitempty" yaml:"subsets,omitempty"`
	// AllowedDuplicates maps files shared on purpose to their owners
	AllowedDuplicates map[string][]string `json:"allowed_duplicates,omitempty" yaml:"allowed_duplicates,omitempty"`
	// Duplicates maps files still owned by several qualifiers to their owners
	Duplicates map[string][]string `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// Valid reports whether every file has at most one owner or is shared on purpose
func (r *ValidationResult) Valid() bool {
	return r == nil || len(r.Duplicates) == 0
}

// ClaimedFiles returns every file owned by at least one qualifier
func (r *ValidationResult) ClaimedFiles() map[string]bool {
	files := make(map[string]bool)
	if r == nil {
		return files
	}
	for _, claimed := range r.Claims {
		for _, f := range claimed {
			files[f] = true
		}
	}
	return files
}

// DuplicatePaths returns the unresolved duplicate files in sorted order
func (r *ValidationResult) DuplicatePaths() []string {
	if r == nil {
		return nil
	}
	paths := make([]string, 0, len(r.Duplicates))
	for p := range r.Duplicates {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Validator resolves overlapping claims between component identities
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a validator
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

type claimPatterns struct {
	exclude       *matchers.PatternMatcher
	sharedInclude *matchers.PatternMatcher
	sharedExclude *matchers.PatternMatcher
}

// Validate runs the pairwise resolution over all qualifiers in sorted
// order. For every ordered pair with a non-empty intersection:
//
//   - intersecting files matched by the parent's exclude pattern leave the parent
//   - files matched by either shared-include pattern become allowed duplicates
//   - files matched by the parent's shared-exclude pattern leave the parent
//   - when the child has nothing outside the parent, the child is a subset
//     and its files are removed from the parent
//
// Partial overlaps that none of these rules cover stay as duplicates. The
// input claims are not modified.
func (v *Validator) Validate(claims map[string]*Claim) *ValidationResult {
	qualifiers := make([]string, 0, len(claims))
	owned := make(map[string]map[string]string, len(claims))
	compiled := make(map[string]claimPatterns, len(claims))
	for q, c := range claims {
		qualifiers = append(qualifiers, q)
		files := make(map[string]string, len(c.Files))
		for f, rel := range c.Files {
			files[f] = rel
		}
		owned[q] = files
		compiled[q] = claimPatterns{
			exclude:       matchers.NewPatternMatcher(c.Pattern.ExcludePattern),
			sharedInclude: matchers.NewPatternMatcher(c.Pattern.SharedIncludePattern),
			sharedExclude: matchers.NewPatternMatcher(c.Pattern.SharedExcludePattern),
		}
	}
	sort.Strings(qualifiers)

	result := &ValidationResult{
		Claims:            make(map[string][]string),
		AllowedDuplicates: make(map[string][]string),
		Duplicates:        make(map[string][]string),
	}
	allowed := make(map[string]map[string]bool)

	for _, pq := range qualifiers {
		for _, cq := range qualifiers {
			if pq == cq {
				continue
			}
			parent, child := owned[pq], owned[cq]
			common := intersection(parent, child)
			if len(common) == 0 {
				continue
			}
			pp, cp := compiled[pq], compiled[cq]
			for _, f := range common {
				switch {
				case pp.exclude.Match(parent[f]):
					delete(parent, f)
				case pp.sharedInclude.Match(parent[f]) || cp.sharedInclude.Match(child[f]):
					if allowed[f] == nil {
						allowed[f] = make(map[string]bool)
					}
					allowed[f][pq] = true
					allowed[f][cq] = true
				case pp.sharedExclude.Match(parent[f]):
					delete(parent, f)
				}
			}
			if len(child) > 0 && !hasOutside(child, parent) {
				for f := range child {
					delete(parent, f)
				}
				result.Subsets = append(result.Subsets, Subset{Parent: pq, Child: cq})
				v.logger.Warn("Component claim is a subset of another component",
					"parent", pq, "child", cq, "files", len(child))
			}
		}
	}

	owners := make(map[string][]string)
	for _, q := range qualifiers {
		files := make([]string, 0, len(owned[q]))
		for f := range owned[q] {
			files = append(files, f)
			owners[f] = append(owners[f], q)
		}
		sort.Strings(files)
		result.Claims[q] = files
	}
	for f, qs := range owners {
		if len(qs) < 2 {
			continue
		}
		if allOwnersAllowed(allowed[f], qs) {
			result.AllowedDuplicates[f] = qs
			continue
		}
		result.Duplicates[f] = qs
	}
	for _, f := range result.DuplicatePaths() {
		v.logger.Warn("File claimed by several components", "path", f, "owners", result.Duplicates[f])
	}
	return result
}

func intersection(a, b map[string]string) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	var common []string
	for f := range a {
		if _, ok := b[f]; ok {
			common = append(common, f)
		}
	}
	sort.Strings(common)
	return common
}

func hasOutside(child, parent map[string]string) bool {
	for f := range child {
		if _, ok := parent[f]; !ok {
			return true
		}
	}
	return false
}

func allOwnersAllowed(allowed map[string]bool, owners []string) bool {
	if allowed == nil {
		return false
	}
	for _, q := range owners {
		if !allowed[q] {
			return false
		}
	}
	return true
}
