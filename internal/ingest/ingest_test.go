package ingest

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, uploader Uploader) *Service {
	t.Helper()
	return NewService(Config{
		TempDir: t.TempDir(),
	}, uploader, log.New(os.Stderr, "[test] ", 0))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func localQuery(t *testing.T, dir string, maxFileSize int64) *Query {
	t.Helper()
	q, err := ParseQuery(dir, maxFileSize)
	require.NoError(t, err)
	return q
}

func TestIngest_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# Widgets\n")
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "docs/guide.md", "guide\n")

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	assert.NotEmpty(t, digest.Tree)
	assert.NotEmpty(t, digest.Content)
	assert.Contains(t, digest.Tree, "README.md")
	assert.Contains(t, digest.Tree, "docs/")
	assert.Contains(t, digest.Content, "File: main.go")
	assert.Contains(t, digest.Content, "package main")
	assert.Contains(t, digest.Summary, "Files analyzed: 3")
	assert.Greater(t, digest.TokenEstimate, 0)
	assert.Empty(t, digest.RemoteURL)
	assert.False(t, digest.UploadFailed)
}

func TestIngest_ExcludePatternsAndSizeCeiling(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "logo.png", "fake image bytes")
	writeFile(t, dir, "big.txt", strings.Repeat("x", 200))

	q := localQuery(t, dir, 100) // ceiling below big.txt
	q.IgnorePatterns = append(q.IgnorePatterns, "*.png")

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), q)
	require.NoError(t, err)

	assert.NotContains(t, digest.Tree, "logo.png")
	assert.NotContains(t, digest.Content, "logo.png")
	assert.NotContains(t, digest.Tree, "big.txt")
	assert.Contains(t, digest.Tree, "main.go")
}

func TestIngest_IncludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "notes.txt", "notes\n")
	writeFile(t, dir, "pkg/util.go", "package pkg\n")

	q := localQuery(t, dir, 0)
	q.IncludePatterns = []string{"*.go"}

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), q)
	require.NoError(t, err)

	assert.Contains(t, digest.Content, "File: main.go")
	assert.Contains(t, digest.Content, "File: pkg/util.go")
	assert.NotContains(t, digest.Content, "notes.txt")
}

func TestIngest_ReadmeSortsFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aaa.go", "package a\n")
	writeFile(t, dir, "README.md", "# hi\n")

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	readmeIdx := strings.Index(digest.Tree, "README.md")
	otherIdx := strings.Index(digest.Tree, "aaa.go")
	require.GreaterOrEqual(t, readmeIdx, 0)
	require.GreaterOrEqual(t, otherIdx, 0)
	assert.Less(t, readmeIdx, otherIdx)
}

func TestIngest_GitingestFileExtendsIgnores(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitingest", "[config]\nignore_patterns = [\"*.secret\"]\n")
	writeFile(t, dir, "keys.secret", "hunter2\n")
	writeFile(t, dir, "main.go", "package main\n")

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	assert.NotContains(t, digest.Content, "hunter2")
	assert.Contains(t, digest.Content, "package main")
}

func TestIngest_GitingestFileInvalidTOMLIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitingest", "not [valid toml")
	writeFile(t, dir, "main.go", "package main\n")

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)
	assert.Contains(t, digest.Content, "package main")
}

func TestIngest_BinaryFilePlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0o644))

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)
	assert.Contains(t, digest.Content, "[binary file]")
}

func TestIngest_MissingPath(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Ingest(context.Background(), localQuery(t, filepath.Join(t.TempDir(), "nope"), 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be found")
}

func TestIngest_SingleFileSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", "just one file\n")

	svc := newTestService(t, nil)
	digest, err := svc.Ingest(context.Background(), localQuery(t, filepath.Join(dir, "one.txt"), 0))
	require.NoError(t, err)

	assert.Contains(t, digest.Summary, "File: one.txt")
	assert.Contains(t, digest.Content, "just one file")
}

func TestIngest_MaxFilesLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeFile(t, dir, name, "data\n")
	}

	svc := NewService(Config{TempDir: t.TempDir(), MaxFiles: 2}, nil, log.New(os.Stderr, "", 0))
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	files := strings.Count(digest.Content, "File: ")
	assert.LessOrEqual(t, files, 2)
}

func TestIngest_TotalSizeLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "first.txt", strings.Repeat("a", 600))
	writeFile(t, dir, "second.txt", strings.Repeat("b", 600))

	svc := NewService(Config{TempDir: t.TempDir(), MaxTotalSizeBytes: 1000}, nil, log.New(os.Stderr, "", 0))
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	// Either file fits on its own; together they exceed the budget.
	assert.Equal(t, 1, strings.Count(digest.Content, "File: "))
}

func TestIngest_DirectoryDepthLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.txt", "near the root\n")
	writeFile(t, dir, "a/b/c/d/e/leaf.txt", "too deep\n")

	svc := NewService(Config{TempDir: t.TempDir(), MaxDirectoryDepth: 3}, nil, log.New(os.Stderr, "", 0))
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	assert.Contains(t, digest.Content, "File: top.txt")
	assert.NotContains(t, digest.Tree, "leaf.txt")
	assert.NotContains(t, digest.Content, "leaf.txt")
}

type fakeUploader struct {
	lastKey     string
	lastContent string
	err         error
}

func (f *fakeUploader) UploadDigest(_ context.Context, objectKey, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastKey = objectKey
	f.lastContent = content
	return "https://bucket.example.com/" + objectKey, nil
}

func TestIngest_UploadsFullDigest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	uploader := &fakeUploader{}
	svc := newTestService(t, uploader)
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	assert.Equal(t, "https://bucket.example.com/"+uploader.lastKey, digest.RemoteURL)
	assert.True(t, strings.HasPrefix(uploader.lastKey, "digests/"), uploader.lastKey)
	assert.True(t, strings.HasSuffix(uploader.lastKey, ".txt"), uploader.lastKey)
	assert.Equal(t, digest.FullText(), uploader.lastContent)
}

func TestIngest_UploadFailureDegradesToLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	svc := newTestService(t, &fakeUploader{err: errors.New("boom")})
	digest, err := svc.Ingest(context.Background(), localQuery(t, dir, 0))
	require.NoError(t, err)

	assert.Empty(t, digest.RemoteURL)
	assert.True(t, digest.UploadFailed)
	assert.NotEmpty(t, digest.Content)
}
