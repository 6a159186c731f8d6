package matchers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternMatcher matches slash-separated paths against Ant-style globs.
//
// Each pattern is indexed on its longest literal substring. A path is only
// handed to doublestar for patterns whose literal is contained in it, which
// keeps large exclude lists cheap without changing what matches.
type PatternMatcher struct {
	patterns []string
	groups   []*patternGroup
	wildcard []*compiledPattern // patterns without any literal
}

type patternGroup struct {
	key      string
	patterns []*compiledPattern
}

type compiledPattern struct {
	glob string
	// prefix is set for "<literal>/**/*" patterns, answered by a prefix test
	prefix string
}

// NewPatternMatcher compiles the given patterns. Each argument may itself be
// a comma-separated list.
func NewPatternMatcher(patterns ...string) *PatternMatcher {
	m := &PatternMatcher{}
	byKey := make(map[string]*patternGroup)
	seen := make(map[string]bool)

	for _, raw := range patterns {
		for _, p := range SplitPatterns(raw) {
			glob := NormalizePattern(p)
			if glob == "" || seen[glob] {
				continue
			}
			seen[glob] = true
			m.patterns = append(m.patterns, glob)

			cp := &compiledPattern{glob: glob, prefix: shortcutPrefix(glob)}
			key := literalKey(glob)
			if key == "" {
				m.wildcard = append(m.wildcard, cp)
				continue
			}
			g, ok := byKey[key]
			if !ok {
				g = &patternGroup{key: key}
				byKey[key] = g
				m.groups = append(m.groups, g)
			}
			g.patterns = append(g.patterns, cp)
		}
	}

	// longer keys are more selective, check them first
	sort.SliceStable(m.groups, func(i, j int) bool {
		return len(m.groups[i].key) > len(m.groups[j].key)
	})
	return m
}

// Patterns returns the normalized patterns
func (m *PatternMatcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}

// Empty reports whether the matcher holds no patterns
func (m *PatternMatcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

// Match reports whether any pattern matches path
func (m *PatternMatcher) Match(path string) bool {
	if m.Empty() {
		return false
	}
	path = NormalizePath(path)

	for _, cp := range m.wildcard {
		if cp.match(path) {
			return true
		}
	}
	for _, g := range m.groups {
		if !strings.Contains(path, g.key) {
			continue
		}
		for _, cp := range g.patterns {
			if cp.match(path) {
				return true
			}
		}
	}
	return false
}

// MatchNaive evaluates every pattern with doublestar, without the index
func (m *PatternMatcher) MatchNaive(path string) bool {
	if m.Empty() {
		return false
	}
	path = NormalizePath(path)
	for _, glob := range m.patterns {
		if ok, err := doublestar.Match(glob, path); err == nil && ok {
			return true
		}
	}
	return false
}

func (cp *compiledPattern) match(path string) bool {
	if cp.prefix != "" && strings.HasPrefix(path, cp.prefix) {
		rest := path[len(cp.prefix):]
		if rest != "" && !strings.HasSuffix(rest, "/") && !strings.HasPrefix(rest, "/") && !strings.Contains(rest, "//") {
			return true
		}
	}
	ok, err := doublestar.Match(cp.glob, path)
	return err == nil && ok
}

// NormalizePattern strips leading slashes, collapses repeated "**/" and
// expands a trailing "/" to "/**".
func NormalizePattern(pattern string) string {
	p := strings.TrimSpace(pattern)
	p = strings.TrimLeft(p, "/")
	for strings.Contains(p, "**/**/") {
		p = strings.ReplaceAll(p, "**/**/", "**/")
	}
	if strings.HasSuffix(p, "/") {
		p += "**"
	}
	return p
}

// NormalizePath converts a path to the form patterns are matched against
func NormalizePath(path string) string {
	return strings.TrimLeft(filepath.ToSlash(path), "/")
}

// SplitPatterns splits a comma-separated pattern list. Commas inside brace
// alternatives are kept.
func SplitPatterns(list string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if s := strings.TrimSpace(list[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if start <= len(list) {
		if s := strings.TrimSpace(list[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// literalKey returns the longest run of literal characters that every
// matching path must contain. Slashes next to "**" are dropped since "**/"
// may match nothing.
func literalKey(glob string) string {
	var best string
	var cur strings.Builder

	flush := func() {
		s := cur.String()
		if len(s) > len(best) {
			best = s
		}
		cur.Reset()
	}

	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '\\':
			if i+1 < len(glob) {
				i++
				cur.WriteByte(glob[i])
			}
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				s := strings.TrimSuffix(cur.String(), "/")
				cur.Reset()
				cur.WriteString(s)
				flush()
				for i+1 < len(glob) && glob[i+1] == '*' {
					i++
				}
				if i+1 < len(glob) && glob[i+1] == '/' {
					i++
				}
				continue
			}
			flush()
		case '?':
			flush()
		case '[':
			flush()
			end := closing(glob, i, '[', ']')
			if end < 0 {
				return best
			}
			i = end
		case '{':
			flush()
			end := closing(glob, i, '{', '}')
			if end < 0 {
				return best
			}
			i = end
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return best
}

// closing returns the index of the bracket closing the one at start, or -1
func closing(s string, start int, open, close byte) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// shortcutPrefix returns "<literal>/" for patterns of the form
// "<literal>/**/*" and empty string otherwise.
func shortcutPrefix(glob string) string {
	const suffix = "/**/*"
	if !strings.HasSuffix(glob, suffix) {
		return ""
	}
	lit := strings.TrimSuffix(glob, suffix)
	if lit == "" || strings.ContainsAny(lit, "*?[]{}\\") || strings.Contains(lit, "//") {
		return ""
	}
	return lit + "/"
}

// Filter combines include and exclude patterns. An empty include set
// accepts every path.
type Filter struct {
	Include *PatternMatcher
	Exclude *PatternMatcher
}

// NewFilter builds a filter from include and exclude pattern lists
func NewFilter(includes, excludes []string) *Filter {
	return &Filter{
		Include: NewPatternMatcher(includes...),
		Exclude: NewPatternMatcher(excludes...),
	}
}

// Accept reports whether path is included and not excluded
func (f *Filter) Accept(path string) bool {
	if f == nil {
		return true
	}
	if !f.Include.Empty() && !f.Include.Match(path) {
		return false
	}
	return !f.Exclude.Match(path)
}

// Excluded reports whether path matches the exclude patterns only
func (f *Filter) Excluded(path string) bool {
	return f != nil && f.Exclude.Match(path)
}
