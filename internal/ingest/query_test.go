package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_EmptySource(t *testing.T) {
	_, err := ParseQuery("   ", 0)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestParseQuery_GitHubURL(t *testing.T) {
	q, err := ParseQuery("https://github.com/acme/widgets", 1024)
	require.NoError(t, err)

	assert.Equal(t, "acme", q.Owner)
	assert.Equal(t, "widgets", q.Repo)
	assert.Equal(t, "https://github.com/acme/widgets", q.URL)
	assert.Equal(t, "acme-widgets", q.Slug)
	assert.Equal(t, "/", q.Subpath)
	assert.Empty(t, q.Branch)
	assert.Equal(t, int64(1024), q.MaxFileSize)
	assert.NotEmpty(t, q.IgnorePatterns)
}

func TestParseQuery_TrimsGitSuffix(t *testing.T) {
	q, err := ParseQuery("https://github.com/acme/widgets.git", 0)
	require.NoError(t, err)
	assert.Equal(t, "widgets", q.Repo)
	assert.Equal(t, "https://github.com/acme/widgets", q.URL)
}

func TestParseQuery_TreeBranchAndSubpath(t *testing.T) {
	q, err := ParseQuery("https://github.com/acme/widgets/tree/develop/src/core", 0)
	require.NoError(t, err)

	assert.Equal(t, "develop", q.Branch)
	assert.Empty(t, q.Commit)
	assert.Equal(t, "/src/core", q.Subpath)
	assert.False(t, q.IsBlob)
}

func TestParseQuery_BlobPath(t *testing.T) {
	q, err := ParseQuery("https://github.com/acme/widgets/blob/main/docs/readme.txt", 0)
	require.NoError(t, err)

	assert.True(t, q.IsBlob)
	assert.Equal(t, "main", q.Branch)
	assert.Equal(t, "/docs/readme.txt", q.Subpath)
}

func TestParseQuery_CommitRef(t *testing.T) {
	sha := "0123456789abcdef0123456789abcdef01234567"
	q, err := ParseQuery("https://github.com/acme/widgets/tree/"+sha+"/pkg", 0)
	require.NoError(t, err)

	assert.Equal(t, sha, q.Commit)
	assert.Empty(t, q.Branch)
	assert.Equal(t, "/pkg", q.Subpath)
}

func TestParseQuery_GitHubShorthand(t *testing.T) {
	q, err := ParseQuery("acme/widgets", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widgets", q.URL)
}

func TestParseQuery_HostWithoutScheme(t *testing.T) {
	q, err := ParseQuery("github.com/acme/widgets", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widgets", q.URL)
}

func TestParseQuery_OtherHost(t *testing.T) {
	q, err := ParseQuery("https://gitlab.com/acme/widgets", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com/acme/widgets", q.URL)
	assert.Equal(t, "acme-widgets", q.Slug)
}

func TestParseQuery_MissingRepoSegment(t *testing.T) {
	_, err := ParseQuery("https://github.com/acme", 0)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestParseQuery_ShorthandPrefersExistingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "app"), 0o755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	q, err := ParseQuery("src/app", 0)
	require.NoError(t, err)
	assert.Empty(t, q.URL)
	assert.Equal(t, filepath.Clean("src/app"), q.LocalPath)
	assert.Equal(t, "app", q.Slug)
}

func TestSplitRef(t *testing.T) {
	branches := []string{"main", "feature", "feature/x", "release/2.0/hotfix"}

	tests := []struct {
		name        string
		source      string
		wantBranch  string
		wantSubpath string
	}{
		{"slash branch wins over path split", "https://github.com/acme/widgets/tree/feature/x", "feature/x", "/"},
		{"longest branch wins", "https://github.com/acme/widgets/tree/feature/x/src", "feature/x", "/src"},
		{"two slashes in branch", "https://github.com/acme/widgets/tree/release/2.0/hotfix/docs", "release/2.0/hotfix", "/docs"},
		{"unknown ref keeps provisional split", "https://github.com/acme/widgets/tree/unknown/src", "unknown", "/src"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := ParseQuery(tc.source, 0)
			require.NoError(t, err)

			splitRef(q, branches)
			assert.Equal(t, tc.wantBranch, q.Branch)
			assert.Equal(t, tc.wantSubpath, q.Subpath)
		})
	}
}

func TestParseQuery_LocalPath(t *testing.T) {
	q, err := ParseQuery("/srv/projects/My Project", 0)
	require.NoError(t, err)

	assert.Empty(t, q.URL)
	assert.Equal(t, "/srv/projects/My Project", q.LocalPath)
	assert.Equal(t, "my-project", q.Slug)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "acme-widgets", slugify("Acme Widgets"))
	assert.Equal(t, "a_b.c", slugify("a_b.c"))
	assert.Equal(t, "x", slugify("--x--"))
}
