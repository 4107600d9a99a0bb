package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader persists a finished digest and returns its shareable URL.
// Implemented by the object storage layer; nil disables uploads.
type Uploader interface {
	UploadDigest(ctx context.Context, objectKey, content string) (string, error)
}

// Digest is the result of one ingestion: everything the renderer shows.
type Digest struct {
	Source        string
	Slug          string
	Summary       string
	Tree          string
	Content       string
	TokenEstimate int

	// RemoteURL is set when the digest was uploaded. UploadFailed
	// distinguishes a failed upload from upload being disabled.
	RemoteURL    string
	UploadFailed bool
}

// FullText is the upload/download payload: summary, tree and content joined
// the same way the copy-full-digest button concatenates them.
func (d *Digest) FullText() string {
	return d.Summary + "\n\n" + d.Tree + "\n\n" + d.Content
}

// Config carries the traversal limits and credentials the service runs with.
type Config struct {
	TempDir           string
	CloneTimeout      time.Duration
	MaxFiles          int
	MaxTotalSizeBytes int64
	MaxDirectoryDepth int
	GitHubPAT         string
}

type Service struct {
	logger       *log.Logger
	httpClient   *http.Client
	uploader     Uploader
	tempDir      string
	cloneTimeout time.Duration
	maxFiles     int
	maxTotalSize int64
	maxDepth     int
	pat          string
}

func NewService(conf Config, uploader Uploader, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if conf.MaxFiles <= 0 {
		conf.MaxFiles = 1000
	}
	if conf.MaxTotalSizeBytes <= 0 {
		conf.MaxTotalSizeBytes = 50 * 1024 * 1024
	}
	if conf.MaxDirectoryDepth <= 0 {
		conf.MaxDirectoryDepth = 10
	}
	if conf.CloneTimeout <= 0 {
		conf.CloneTimeout = 60 * time.Second
	}
	if conf.TempDir == "" {
		conf.TempDir = filepath.Join(os.TempDir(), "gittodoc")
	}
	return &Service{
		logger:       logger,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		uploader:     uploader,
		tempDir:      conf.TempDir,
		cloneTimeout: conf.CloneTimeout,
		maxFiles:     conf.MaxFiles,
		maxTotalSize: conf.MaxTotalSizeBytes,
		maxDepth:     conf.MaxDirectoryDepth,
		pat:          conf.GitHubPAT,
	}
}

// Ingest runs one query end to end: clone (for remote sources), walk,
// format, and upload when storage is configured. The clone directory is
// removed before returning; local directory sources are never deleted.
func (s *Service) Ingest(ctx context.Context, q *Query) (*Digest, error) {
	if q == nil {
		return nil, errors.New("query is required")
	}

	if q.URL != "" {
		q.LocalPath = filepath.Join(s.tempDir, q.Slug+"-"+uuid.NewString())
		if err := s.clone(ctx, q); err != nil {
			return nil, err
		}
		defer os.RemoveAll(q.LocalPath)
	}

	root := q.LocalPath
	if sub := strings.Trim(q.Subpath, "/"); sub != "" {
		root = filepath.Join(root, filepath.FromSlash(sub))
	}

	s.applyIngestFile(q, root)

	tree, _, err := s.walk(q, root)
	if err != nil {
		return nil, err
	}

	content, err := formatContent(tree)
	if err != nil {
		return nil, err
	}
	treeText := formatTree(tree)
	tokens := EstimateTokens(treeText + content)

	digest := &Digest{
		Source:        q.Source,
		Slug:          q.Slug,
		Summary:       formatSummary(q, tree, tokens),
		Tree:          treeText,
		Content:       content,
		TokenEstimate: tokens,
	}

	if s.uploader != nil {
		objectKey := fmt.Sprintf("digests/%s/%s.txt", q.Slug, uuid.NewString())
		url, err := s.uploader.UploadDigest(ctx, objectKey, digest.FullText())
		if err != nil {
			s.logger.Printf("digest upload failed for %s: %v", q.Slug, err)
			digest.UploadFailed = true
		} else {
			digest.RemoteURL = url
		}
	}

	return digest, nil
}
