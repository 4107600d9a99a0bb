package ingest

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ingestFile is the optional .gitingest file at the walk root:
//
//	[config]
//	ignore_patterns = ["*.log", "testdata"]
//
// A single string is accepted in place of the array.
type ingestFile struct {
	Config struct {
		IgnorePatterns any `toml:"ignore_patterns"`
	} `toml:"config"`
}

// applyIngestFile merges repository-provided ignore patterns into the query.
// Malformed files are logged and skipped; they never fail the ingest.
func (s *Service) applyIngestFile(q *Query, root string) {
	data, err := os.ReadFile(filepath.Join(root, ".gitingest"))
	if err != nil {
		return
	}

	var parsed ingestFile
	if err := toml.Unmarshal(data, &parsed); err != nil {
		s.logger.Printf("invalid TOML in .gitingest for %s: %v", q.Slug, err)
		return
	}

	switch v := parsed.Config.IgnorePatterns.(type) {
	case string:
		if v != "" {
			q.IgnorePatterns = append(q.IgnorePatterns, v)
		}
	case []any:
		for _, item := range v {
			if pattern, ok := item.(string); ok && pattern != "" {
				q.IgnorePatterns = append(q.IgnorePatterns, pattern)
			} else if !ok {
				s.logger.Printf(".gitingest for %s: skipping non-string ignore pattern %v", q.Slug, item)
			}
		}
	case nil:
	default:
		s.logger.Printf(".gitingest for %s: ignore_patterns must be a string or array", q.Slug)
	}
}
