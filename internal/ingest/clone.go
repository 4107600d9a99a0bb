package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrRepoNotFound = errors.New("repository not found, make sure it is public or you have access")

// clone materializes q.URL into q.LocalPath. Shallow single-branch clone by
// default; sparse checkout when the query targets a subpath; full history
// plus checkout when a commit is pinned.
func (s *Service) clone(ctx context.Context, q *Query) error {
	ctx, cancel := context.WithTimeout(ctx, s.cloneTimeout)
	defer cancel()

	if err := s.ensureGitInstalled(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(q.LocalPath), 0o755); err != nil {
		return fmt.Errorf("create clone parent dir: %w", err)
	}

	exists, err := s.checkRepoExists(ctx, q)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRepoNotFound
	}

	s.resolveRef(ctx, q)

	cloneURL := q.URL
	if s.pat != "" && strings.HasPrefix(q.URL, "https://github.com") {
		// Token-in-URL is GitHub's supported HTTPS auth shape.
		cloneURL = strings.Replace(q.URL, "https://", "https://"+url.QueryEscape(s.pat)+"@", 1)
		if !strings.HasSuffix(cloneURL, ".git") {
			cloneURL += ".git"
		}
	}

	partial := q.Subpath != "" && q.Subpath != "/"

	args := []string{"clone", "--single-branch"}
	if partial {
		args = append(args, "--filter=blob:none", "--sparse")
	}
	if q.Commit == "" {
		args = append(args, "--depth=1")
		if q.Branch != "" && !strings.EqualFold(q.Branch, "main") && !strings.EqualFold(q.Branch, "master") {
			args = append(args, "--branch", q.Branch)
		}
	}
	args = append(args, cloneURL, q.LocalPath)

	s.logger.Printf("cloning %s into %s", q.URL, q.LocalPath)
	if _, err := s.runGit(ctx, args...); err != nil {
		return err
	}

	if partial {
		subpath := strings.TrimPrefix(q.Subpath, "/")
		if q.IsBlob {
			// Blob URLs name a file; sparse checkout wants its directory.
			subpath = path.Dir(subpath)
		}
		if _, err := s.runGit(ctx, "-C", q.LocalPath, "sparse-checkout", "set", subpath); err != nil {
			return err
		}
	}
	if q.Commit != "" {
		if _, err := s.runGit(ctx, "-C", q.LocalPath, "checkout", q.Commit); err != nil {
			return err
		}
	}
	return nil
}
