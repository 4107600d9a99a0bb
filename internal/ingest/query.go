package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptySource   = errors.New("source is required")
	ErrInvalidSource = errors.New("invalid repository URL or path")
)

// Query is a fully resolved ingestion request: where the files come from,
// which of them to keep, and how large any one of them may be.
type Query struct {
	// Source is the locator exactly as the user submitted it.
	Source string

	// Remote repository fields. Empty for local directory sources.
	URL     string
	Owner   string
	Repo    string
	Branch  string
	Commit  string
	Subpath string
	IsBlob  bool

	// LocalPath is where the files live once cloning (if any) is done.
	LocalPath string

	Slug string

	IncludePatterns []string
	IgnorePatterns  []string
	MaxFileSize     int64

	// refSegments holds the raw segments after /tree/ or /blob/ so the
	// provisional branch/subpath split can be corrected against the
	// remote's branch list: branch names may contain slashes.
	refSegments []string
}

// knownHosts are the Git hosts whose URL paths we understand well enough to
// extract owner/repo/ref/subpath segments.
var knownHosts = map[string]bool{
	"github.com":    true,
	"gitlab.com":    true,
	"bitbucket.org": true,
	"codeberg.org":  true,
}

// ParseQuery turns a user-submitted locator into a Query. Remote URLs get
// owner/repo/branch/subpath extracted; anything else is treated as a local
// filesystem path. A bare dotless "owner/repo" pair is read as GitHub
// shorthand unless it names an existing local path, which takes precedence.
func ParseQuery(source string, maxFileSize int64) (*Query, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptySource
	}

	q := &Query{
		Source:         source,
		MaxFileSize:    maxFileSize,
		IgnorePatterns: DefaultIgnorePatterns(),
	}

	if isRemoteSource(source) {
		if err := parseRemote(q, source); err != nil {
			return nil, err
		}
		return q, nil
	}

	q.LocalPath = filepath.Clean(source)
	q.Slug = slugify(filepath.Base(q.LocalPath))
	if q.Slug == "" || q.Slug == "." {
		q.Slug = "local"
	}
	return q, nil
}

func isRemoteSource(source string) bool {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return true
	}
	// Bare "owner/repo" and "github.com/owner/repo" shapes are treated as
	// GitHub shorthand, matching what the catch-all route submits.
	head := strings.Split(source, "/")[0]
	if knownHosts[head] {
		return true
	}
	parts := strings.Split(source, "/")
	if len(parts) != 2 || strings.Contains(source, ".") || parts[0] == "" || parts[1] == "" {
		return false
	}
	// An existing local path wins over the shorthand reading.
	if _, err := os.Stat(source); err == nil {
		return false
	}
	return true
}

func parseRemote(q *Query, source string) error {
	raw := source
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if !knownHosts[strings.Split(raw, "/")[0]] {
			raw = "github.com/" + raw
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSource, source)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return fmt.Errorf("%w: %s", ErrInvalidSource, source)
	}

	q.Owner = segments[0]
	q.Repo = strings.TrimSuffix(segments[1], ".git")
	q.URL = fmt.Sprintf("https://%s/%s/%s", u.Host, q.Owner, q.Repo)
	q.Slug = slugify(q.Owner + "-" + q.Repo)

	// Optional /tree/{ref}/{subpath} or /blob/{ref}/{path/to/file} suffix.
	if len(segments) > 3 && (segments[2] == "tree" || segments[2] == "blob") {
		q.IsBlob = segments[2] == "blob"
		ref := segments[3]
		if looksLikeCommit(ref) {
			q.Commit = ref
		} else {
			q.Branch = ref
			q.refSegments = segments[3:]
		}
		if len(segments) > 4 {
			q.Subpath = "/" + strings.Join(segments[4:], "/")
		}
	}
	if q.Subpath == "" {
		q.Subpath = "/"
	}
	return nil
}

// splitRef corrects the provisional branch/subpath split once the remote's
// branch list is known: /tree/feature/x may mean branch "feature" with path
// "/x" or branch "feature/x". The longest matching branch wins; with no
// match the provisional split stands.
func splitRef(q *Query, branches []string) {
	known := make(map[string]bool, len(branches))
	for _, b := range branches {
		known[b] = true
	}
	for n := len(q.refSegments); n >= 1; n-- {
		candidate := strings.Join(q.refSegments[:n], "/")
		if !known[candidate] {
			continue
		}
		q.Branch = candidate
		if n < len(q.refSegments) {
			q.Subpath = "/" + strings.Join(q.refSegments[n:], "/")
		} else {
			q.Subpath = "/"
		}
		return
	}
}

func looksLikeCommit(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, r := range ref {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
