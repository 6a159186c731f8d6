package componentpattern

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/petrarca/composition-scanner/internal/scanner/matchers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Index is the view of the scanned tree a match pass runs against
type Index struct {
	// Files holds every collected file relative to the scan root, slash separated
	Files []string
	// ScanRoot is the absolute base directory
	ScanRoot string
	// Checksum returns the SHA-256 of a file given relative to the scan root
	Checksum func(rel string) (string, error)
	// AssetIDChain returns the enclosing asset ids of a path, innermost first
	AssetIDChain func(rel string) []string
}

// Match is one occurrence of a pattern plus the files it claims
type Match struct {
	types.MatchResult
	// Claimed maps each claimed file, relative to the scan root, to its path
	// relative to the version anchor root
	Claimed map[string]string
}

// Key identifies the occurrence across repeated match passes
func (m *Match) Key() string {
	return m.Pattern.Qualifier() + "@" + m.AnchorPath
}

// ClaimedFiles returns the claimed files in sorted order
func (m *Match) ClaimedFiles() []string {
	files := make([]string, 0, len(m.Claimed))
	for f := range m.Claimed {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Artifact derives the artifact describing this occurrence
func (m *Match) Artifact() *types.Artifact {
	p := m.Pattern
	a := types.NewArtifact(p.ArtifactID())
	a.Component = p.ComponentName
	a.Version = p.ComponentVersion
	for k, v := range p.Attributes {
		a.Set(k, v)
	}
	a.GroupID = p.Attributes[types.AttrGroupID]
	if p.Type != "" {
		a.Set(types.AttrType, p.Type)
	}
	a.Set(types.AttrComponentSourceType, types.SourceTypeComponentPattern)
	a.Set(types.AttrComponentPattern, p.Qualifier())
	a.Set(types.AttrVirtualRootPath, m.VersionAnchorRoot)
	a.Set(types.AttrAssetIDChain, strings.Join(m.AssetIDChain, types.ChainSeparator))
	a.AddPathInAsset(displayRoot(m.VersionAnchorRoot))
	return a
}

func displayRoot(root string) string {
	if root == "" {
		return "."
	}
	return root
}

// Matcher finds component pattern occurrences in an index. It holds no
// state between calls, so the result depends only on its inputs.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a matcher
func NewMatcher(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

type compiledPattern struct {
	data     *types.ComponentPatternData
	anchor   *matchers.PatternMatcher
	segments int
	pinned   bool
	root     string
	include  *matchers.PatternMatcher
	exclude  *matchers.PatternMatcher
}

func compile(p *types.ComponentPatternData) *compiledPattern {
	anchor := strings.TrimSpace(p.VersionAnchor)
	glob := "**/" + strings.TrimLeft(anchor, "/")
	if strings.HasPrefix(anchor, "/") {
		glob = strings.TrimLeft(anchor, "/")
	}
	cp := &compiledPattern{
		data:     p,
		anchor:   matchers.NewPatternMatcher(glob),
		segments: len(strings.Split(strings.Trim(anchor, "/"), "/")),
		include:  matchers.NewPatternMatcher(p.IncludePattern),
		exclude:  matchers.NewPatternMatcher(p.ExcludePattern),
	}
	if strings.HasPrefix(anchor, "/") {
		// a rooted anchor names one file; its directory is the anchor root
		cp.segments = 1
	}
	if p.AnchorRoot != "" {
		cp.pinned = true
		cp.root = strings.Trim(matchers.NormalizePath(p.AnchorRoot), "/")
		if cp.root == "." {
			cp.root = ""
		}
	}
	return cp
}

// Match evaluates every pattern against the index. Results are sorted by
// anchor root, qualifier and anchor path.
func (m *Matcher) Match(patterns []*types.ComponentPatternData, idx Index) []*Match {
	files := append([]string(nil), idx.Files...)
	sort.Strings(files)

	var results []*Match
	for _, p := range patterns {
		if p == nil || strings.TrimSpace(p.VersionAnchor) == "" {
			continue
		}
		cp := compile(p)
		for _, file := range files {
			if !cp.anchor.Match(file) {
				continue
			}
			root, ok := anchorRoot(file, cp.segments)
			if !ok {
				continue
			}
			if cp.pinned && cp.root != root {
				continue
			}
			if p.RequiresChecksum() && !m.checksumMatches(idx, file, p.VersionAnchorChecksum) {
				continue
			}
			results = append(results, &Match{
				MatchResult: types.MatchResult{
					Pattern:           p,
					AnchorPath:        file,
					ScanRoot:          idx.ScanRoot,
					VirtualRoot:       virtualRoot(root),
					VersionAnchorRoot: root,
					AssetIDChain:      assetChain(idx, file),
				},
				Claimed: cp.claim(files, file, root),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.VersionAnchorRoot != b.VersionAnchorRoot {
			return a.VersionAnchorRoot < b.VersionAnchorRoot
		}
		if qa, qb := a.Pattern.Qualifier(), b.Pattern.Qualifier(); qa != qb {
			return qa < qb
		}
		return a.AnchorPath < b.AnchorPath
	})
	return results
}

func (m *Matcher) checksumMatches(idx Index, file, want string) bool {
	if idx.Checksum == nil {
		return false
	}
	sum, err := idx.Checksum(file)
	if err != nil {
		m.logger.Warn("Cannot compute anchor checksum", "path", file, "error", err)
		return false
	}
	return strings.EqualFold(sum, want)
}

// claim collects the files below root accepted by the include and exclude
// patterns. An empty include pattern claims the anchor alone.
func (cp *compiledPattern) claim(files []string, anchor, root string) map[string]string {
	claimed := make(map[string]string)
	prefix := ""
	if root != "" {
		prefix = root + "/"
	}
	if cp.include.Empty() {
		claimed[anchor] = strings.TrimPrefix(anchor, prefix)
		return claimed
	}
	start := sort.SearchStrings(files, prefix)
	for _, f := range files[start:] {
		if !strings.HasPrefix(f, prefix) {
			break
		}
		rel := f[len(prefix):]
		if cp.include.Match(rel) && !cp.exclude.Match(rel) {
			claimed[f] = rel
		}
	}
	return claimed
}

// anchorRoot strips the anchor's segments from the anchor file path
func anchorRoot(file string, segments int) (string, bool) {
	parts := strings.Split(file, "/")
	if segments > len(parts) {
		return "", false
	}
	return strings.Join(parts[:len(parts)-segments], "/"), true
}

// virtualRoot returns the nearest enclosing unpacked-archive directory
func virtualRoot(root string) string {
	if root == "" {
		return ""
	}
	parts := strings.Split(root, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if IsVirtualDir(parts[i]) {
			return strings.Join(parts[:i+1], "/")
		}
	}
	return ""
}

// IsVirtualDir reports whether a directory name is an unpacked archive
func IsVirtualDir(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]")
}

func assetChain(idx Index, file string) []string {
	if idx.AssetIDChain == nil {
		return nil
	}
	return idx.AssetIDChain(file)
}
