package git

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/petrarca/composition-scanner/internal/types"
)

// Asset attribute keys for repository information
const (
	AttrBranch = "Git Branch"
	AttrCommit = "Git Commit"
	AttrDirty  = "Git Dirty"
	AttrRemote = "Git Remote"
)

// GitInfo contains git repository information
type GitInfo struct {
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	IsDirty   bool   `json:"is_dirty" yaml:"is_dirty"`
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
}

// Annotate copies the repository information onto asset metadata
func (g *GitInfo) Annotate(m *types.AssetMetadata) {
	if g == nil || m == nil {
		return
	}
	if g.Branch != "" {
		m.Set(AttrBranch, g.Branch)
	}
	if g.Commit != "" {
		m.Set(AttrCommit, g.Commit)
	}
	if g.RemoteURL != "" {
		m.Set(AttrRemote, g.RemoteURL)
	}
	m.Set(AttrDirty, strconv.FormatBool(g.IsDirty))
}

// GetGitInfo retrieves git repository information for the given path.
// It returns nil outside a repository.
func GetGitInfo(path string) *GitInfo {
	info, _ := GetGitInfoWithRoot(path)
	return info
}

// GetGitInfoWithRoot retrieves git info and returns the repository root path
func GetGitInfoWithRoot(path string) (*GitInfo, string) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ""
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, ""
	}
	repoRoot := worktree.Filesystem.Root()

	gitInfo := &GitInfo{}

	head, err := repo.Head()
	if err == nil {
		gitInfo.Commit = head.Hash().String()[:7]
		if head.Name().IsBranch() {
			gitInfo.Branch = head.Name().Short()
		} else {
			gitInfo.Branch = "HEAD" // Detached HEAD
		}
	}

	// Status walks the whole worktree
	status, err := worktree.Status()
	if err == nil {
		gitInfo.IsDirty = !status.IsClean()
	}

	remoteConfig, err := repo.Config()
	if err == nil {
		if origin := remoteConfig.Remotes["origin"]; origin != nil && len(origin.URLs) > 0 {
			gitInfo.RemoteURL = sanitizeRemoteURL(origin.URLs[0])
		}
	}

	return gitInfo, repoRoot
}

// sanitizeRemoteURL strips credentials from http(s) remote URLs
func sanitizeRemoteURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}

// GenerateRootIDFromGit generates a deterministic root ID from git remote URL and relative path
// If no remote URL is available, returns empty string
func GenerateRootIDFromGit(path string) string {
	gitInfo, repoRoot := GetGitInfoWithRoot(path)
	if gitInfo == nil || gitInfo.RemoteURL == "" {
		return ""
	}

	remoteURL := normalizeRemoteURL(gitInfo.RemoteURL)

	var relativePath string
	if repoRoot != "" && repoRoot != path {
		rel, err := filepath.Rel(repoRoot, path)
		if err == nil {
			relativePath = filepath.ToSlash(rel)
		}
	}

	// hash(remoteURL + relativePath)
	content := remoteURL
	if relativePath != "" && relativePath != "." {
		content += ":" + relativePath
	}
	return shortHash(content)
}

// normalizeRemoteURL converts various git URL formats to a consistent format
func normalizeRemoteURL(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "git@")
	url = strings.TrimPrefix(url, "git://")
	url = strings.TrimSuffix(url, ".git")

	// git@github.com:user/repo keeps its colon once the user is gone
	if strings.Contains(url, ":") && strings.Contains(url, "@") {
		url = strings.Replace(url, ":", "/", 1)
	}

	return strings.TrimSuffix(url, "/")
}

// GenerateRootIDFromPath generates a deterministic root ID from absolute path
// Used when git repository is not available
func GenerateRootIDFromPath(basePath string) string {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		absPath = basePath
	}
	return shortHash(filepath.Clean(absPath))
}

// RootAssetID returns the asset id of a scan root: the directory name plus
// a hash of the git remote, or of the absolute path outside a repository
func RootAssetID(basePath string) string {
	id := GenerateRootIDFromGit(basePath)
	if id == "" {
		id = GenerateRootIDFromPath(basePath)
	}
	return types.AssetIDPrefix + filepath.Base(filepath.Clean(basePath)) + "-" + id
}

func shortHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])[:20]
}
