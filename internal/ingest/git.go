package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// runGit executes git with the given arguments and returns stdout. Error
// messages have the PAT redacted before they can reach logs or renders.
func (s *Service) runGit(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		return nil, fmt.Errorf("git %s: %s", args[0], s.redact(msg))
	}
	return stdout.Bytes(), nil
}

func (s *Service) redact(msg string) string {
	if s.pat == "" {
		return msg
	}
	return strings.ReplaceAll(msg, s.pat, "*****")
}

func (s *Service) ensureGitInstalled(ctx context.Context) error {
	if _, err := s.runGit(ctx, "--version"); err != nil {
		return fmt.Errorf("git is not installed or not accessible: %w", err)
	}
	return nil
}

// checkRepoExists probes the repository before cloning so a bad URL fails
// fast with a clear message. With a PAT and a GitHub URL the API is used,
// which also covers private repositories.
func (s *Service) checkRepoExists(ctx context.Context, q *Query) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	target := q.URL
	authenticated := s.pat != "" && strings.Contains(q.URL, "github.com")
	if authenticated {
		target = fmt.Sprintf("https://api.github.com/repos/%s/%s", q.Owner, q.Repo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, err
	}
	if authenticated {
		req.Header.Set("Authorization", "token "+s.pat)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, nil // unreachable host reads as "not found"
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently:
		return true, nil
	case http.StatusFound, http.StatusNotFound:
		// GitHub answers 404 for private repos too; with credentials in hand
		// the clone itself is the real test.
		return authenticated, nil
	default:
		return false, fmt.Errorf("unexpected status %d checking %s", resp.StatusCode, q.URL)
	}
}

// FetchRemoteBranches lists branch names on a remote, used to distinguish a
// branch segment from a path segment in ambiguous URLs.
func (s *Service) FetchRemoteBranches(ctx context.Context, url string) ([]string, error) {
	if err := s.ensureGitInstalled(ctx); err != nil {
		return nil, err
	}
	out, err := s.runGit(ctx, "ls-remote", "--heads", url)
	if err != nil {
		return nil, err
	}
	return parseBranchHeads(out), nil
}

func parseBranchHeads(out []byte) []string {
	var branches []string
	for _, line := range strings.Split(string(out), "\n") {
		if idx := strings.Index(line, "refs/heads/"); idx >= 0 {
			branches = append(branches, line[idx+len("refs/heads/"):])
		}
	}
	return branches
}

// resolveRef settles the branch/subpath split for refs that may contain
// slashes. Only queries with at least two ref segments are ambiguous; a
// failed lookup keeps the provisional split so the clone can still try.
func (s *Service) resolveRef(ctx context.Context, q *Query) {
	if q.Branch == "" || len(q.refSegments) < 2 {
		return
	}
	branches, err := s.FetchRemoteBranches(ctx, q.URL)
	if err != nil {
		s.logger.Printf("branch lookup for %s: %v", q.URL, err)
		return
	}
	splitRef(q, branches)
}
