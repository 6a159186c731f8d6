package parsers

import (
	"fmt"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// ParseGoMod returns the module path declared by go.mod using the official
// modfile parser. go.mod carries no version; callers take it from the
// module cache directory name.
func ParseGoMod(content []byte) (Manifest, error) {
	file, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return Manifest{}, fmt.Errorf("invalid go.mod: %w", err)
	}
	if file.Module == nil {
		return Manifest{}, fmt.Errorf("go.mod has no module directive")
	}
	return Manifest{Name: file.Module.Mod.Path}, nil
}

// SplitModuleCacheDir splits a module cache directory name such as
// "gin@v1.9.0" into its escaped element and version. The version must be valid
// semver.
func SplitModuleCacheDir(dir string) (string, string, bool) {
	for i := len(dir) - 1; i >= 0; i-- {
		if dir[i] != '@' {
			continue
		}
		version, err := module.UnescapeVersion(dir[i+1:])
		if err != nil || !semver.IsValid(version) {
			return "", "", false
		}
		return dir[:i], version, true
	}
	return "", "", false
}
