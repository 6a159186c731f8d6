package componentpattern

import (
	"testing"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claim(p *types.ComponentPatternData, files ...string) *Claim {
	c := &Claim{Pattern: p, Files: make(map[string]string)}
	for _, f := range files {
		c.Files[f] = f
	}
	return c
}

func TestValidator_SubsetResolution(t *testing.T) {
	a := &types.ComponentPatternData{ComponentName: "A"}
	b := &types.ComponentPatternData{ComponentName: "B"}
	claims := map[string]*Claim{
		a.Qualifier(): claim(a, "a", "b", "c"),
		b.Qualifier(): claim(b, "b", "c"),
	}

	result := NewValidator(nil).Validate(claims)

	assert.True(t, result.Valid())
	assert.Equal(t, []string{"a"}, result.Claims[a.Qualifier()])
	assert.Equal(t, []string{"b", "c"}, result.Claims[b.Qualifier()])
	assert.Equal(t, []Subset{{Parent: a.Qualifier(), Child: b.Qualifier()}}, result.Subsets)
	assert.Len(t, claims[a.Qualifier()].Files, 3, "input claims are not modified")
}

func TestValidator_PartialOverlapStaysUnresolved(t *testing.T) {
	a := &types.ComponentPatternData{ComponentName: "A"}
	b := &types.ComponentPatternData{ComponentName: "B"}
	claims := map[string]*Claim{
		a.Qualifier(): claim(a, "a", "b"),
		b.Qualifier(): claim(b, "b", "c"),
	}

	result := NewValidator(nil).Validate(claims)

	assert.False(t, result.Valid())
	assert.Empty(t, result.Subsets)
	assert.Equal(t, map[string][]string{"b": {a.Qualifier(), b.Qualifier()}}, result.Duplicates)
	assert.Equal(t, []string{"b"}, result.DuplicatePaths())
}

func TestValidator_SharedPatterns(t *testing.T) {
	tests := []struct {
		name       string
		parent     *types.ComponentPatternData
		child      *types.ComponentPatternData
		parentHas  []string
		childHas   []string
		wantParent []string
		wantValid  bool
		wantShared []string
	}{
		{
			name:       "shared include allows duplicate",
			parent:     &types.ComponentPatternData{ComponentName: "A", SharedIncludePattern: "common/**"},
			child:      &types.ComponentPatternData{ComponentName: "B"},
			parentHas:  []string{"a", "common/x.h"},
			childHas:   []string{"b", "common/x.h"},
			wantParent: []string{"a", "common/x.h"},
			wantValid:  true,
			wantShared: []string{"common/x.h"},
		},
		{
			name:       "shared exclude strips parent",
			parent:     &types.ComponentPatternData{ComponentName: "A", SharedExcludePattern: "common/**"},
			child:      &types.ComponentPatternData{ComponentName: "B"},
			parentHas:  []string{"a", "common/x.h"},
			childHas:   []string{"b", "common/x.h"},
			wantParent: []string{"a"},
			wantValid:  true,
		},
		{
			name:       "parent exclude strips parent",
			parent:     &types.ComponentPatternData{ComponentName: "A", ExcludePattern: "**/*.tmp"},
			child:      &types.ComponentPatternData{ComponentName: "B"},
			parentHas:  []string{"a", "x.tmp"},
			childHas:   []string{"b", "x.tmp"},
			wantParent: []string{"a"},
			wantValid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := map[string]*Claim{
				tt.parent.Qualifier(): claim(tt.parent, tt.parentHas...),
				tt.child.Qualifier():  claim(tt.child, tt.childHas...),
			}

			result := NewValidator(nil).Validate(claims)

			assert.Equal(t, tt.wantValid, result.Valid())
			assert.Equal(t, tt.wantParent, result.Claims[tt.parent.Qualifier()])
			var shared []string
			for f := range result.AllowedDuplicates {
				shared = append(shared, f)
			}
			assert.Equal(t, tt.wantShared, shared)
		})
	}
}

func TestClaimsFromMatches(t *testing.T) {
	p := &types.ComponentPatternData{ComponentName: "lodash", ComponentVersion: "4.17.21"}
	matches := []*Match{
		{MatchResult: types.MatchResult{Pattern: p}, Claimed: map[string]string{"x/index.js": "index.js"}},
		{MatchResult: types.MatchResult{Pattern: p}, Claimed: map[string]string{"y/index.js": "index.js"}},
	}

	claims := ClaimsFromMatches(matches)

	require.Len(t, claims, 1)
	assert.Len(t, claims[p.Qualifier()].Files, 2)
}
