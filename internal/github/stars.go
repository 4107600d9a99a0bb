package github

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// StarCounter returns the star count of the project repository for the
// header badge. Responses are cached so page loads don't burn API quota.
type StarCounter struct {
	client *gh.Client
	owner  string
	repo   string
	ttl    time.Duration

	mu        sync.Mutex
	cached    int
	fetchedAt time.Time
}

// NewStarCounter takes the repository as "owner/name". The token is optional;
// unauthenticated requests work within GitHub's anonymous rate limit.
func NewStarCounter(repo, token string, ttl time.Duration) (*StarCounter, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("star repo must be owner/name, got %q", repo)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	client := gh.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = gh.NewClient(oauth2.NewClient(context.Background(), ts))
	}

	return &StarCounter{
		client: client,
		owner:  owner,
		repo:   name,
		ttl:    ttl,
	}, nil
}

// Stars returns the cached count, refreshing it when stale. A failed refresh
// keeps serving the previous value; -1 means no value has ever been fetched.
func (s *StarCounter) Stars(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.fetchedAt) < s.ttl && !s.fetchedAt.IsZero() {
		return s.cached
	}

	repo, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		if s.fetchedAt.IsZero() {
			return -1
		}
		return s.cached
	}

	s.cached = repo.GetStargazersCount()
	s.fetchedAt = time.Now()
	return s.cached
}
