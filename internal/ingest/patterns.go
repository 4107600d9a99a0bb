package ingest

import (
	"path"
	"strings"
)

// defaultIgnore mirrors the noise every digest should skip regardless of
// user patterns: VCS metadata, dependency trees, build output, binaries.
var defaultIgnore = []string{
	".git", ".svn", ".hg",
	".github", ".gitlab",
	"node_modules", "bower_components", "vendor",
	"__pycache__", "*.pyc", "*.pyo", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache",
	"dist", "build", "target", "out", "bin", "obj",
	".idea", ".vscode", ".DS_Store",
	"*.min.js", "*.min.css", "*.map",
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum", "Cargo.lock", "poetry.lock",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.svg", "*.webp",
	"*.pdf", "*.zip", "*.tar", "*.gz", "*.bz2", "*.7z", "*.rar",
	"*.exe", "*.dll", "*.so", "*.dylib", "*.a", "*.o", "*.class", "*.jar",
	"*.woff", "*.woff2", "*.ttf", "*.eot",
	"*.mp3", "*.mp4", "*.avi", "*.mov",
	"*.db", "*.sqlite", "*.sqlite3",
}

// DefaultIgnorePatterns returns a fresh copy so callers can append user
// patterns without sharing state.
func DefaultIgnorePatterns() []string {
	out := make([]string, len(defaultIgnore))
	copy(out, defaultIgnore)
	return out
}

// SplitPatterns parses a user pattern field: comma or whitespace separated
// globs, blanks dropped.
func SplitPatterns(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// matchesAny reports whether relPath (slash-separated, relative to the walk
// root) matches any glob. A pattern matches if it matches the base name, the
// whole relative path, or any path prefix, so "node_modules" excludes the
// entire subtree.
func matchesAny(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	base := path.Base(relPath)
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(pattern, "/")
		if pattern == "" {
			continue
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, relPath); ok {
			return true
		}
		// Prefix match lets "src/generated" style patterns cover children.
		rest := relPath
		for {
			dir := path.Dir(rest)
			if dir == "." || dir == "/" || dir == rest {
				break
			}
			if ok, _ := path.Match(pattern, dir); ok {
				return true
			}
			rest = dir
		}
	}
	return false
}

// shouldInclude is the include-mode counterpart: a directory is kept while
// any include pattern could still match inside it, a file only on an actual
// match.
func shouldInclude(relPath string, isDir bool, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	if matchesAny(relPath, patterns) {
		return true
	}
	if !isDir {
		return false
	}
	// Keep descending: "*.go" should not prune "internal/" before the walk
	// ever sees a .go file.
	for _, pattern := range patterns {
		if strings.Contains(pattern, "/") {
			if strings.HasPrefix(strings.TrimSuffix(pattern, "/"), relPath+"/") {
				return true
			}
		} else {
			return true
		}
	}
	return false
}
