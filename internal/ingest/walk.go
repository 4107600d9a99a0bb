package ingest

import (
	"fmt"
	"os"
	"path/filepath"
)

// walk builds the node tree rooted at absRoot, applying the query's pattern
// filters and the service-wide traversal limits.
func (s *Service) walk(q *Query, absRoot string) (*Node, *Stats, error) {
	info, err := os.Lstat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("%s cannot be found", q.Slug)
	}

	stats := &Stats{}

	if !info.IsDir() {
		if info.Size() == 0 {
			return nil, nil, fmt.Errorf("file %s has no content", info.Name())
		}
		node := &Node{
			Name:      info.Name(),
			Type:      NodeFile,
			Path:      info.Name(),
			AbsPath:   absRoot,
			Size:      info.Size(),
			FileCount: 1,
		}
		stats.TotalFiles = 1
		stats.TotalSize = info.Size()
		return node, stats, nil
	}

	root := &Node{
		Name:    filepath.Base(absRoot),
		Type:    NodeDirectory,
		Path:    ".",
		AbsPath: absRoot,
	}
	if err := s.walkDir(root, q, absRoot, stats); err != nil {
		return nil, nil, err
	}
	return root, stats, nil
}

func (s *Service) walkDir(node *Node, q *Query, root string, stats *Stats) error {
	if s.limitExceeded(stats, node.Depth) {
		return nil
	}

	entries, err := os.ReadDir(node.AbsPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", node.Path, err)
	}

	for _, entry := range entries {
		abs := filepath.Join(node.AbsPath, entry.Name())
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(rel, q.IgnorePatterns) {
			continue
		}
		if !shouldInclude(rel, entry.IsDir(), q.IncludePatterns) {
			continue
		}

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			// Symlinks are recorded, never followed.
			node.Children = append(node.Children, &Node{
				Name:    entry.Name(),
				Type:    NodeSymlink,
				Path:    rel,
				AbsPath: abs,
				Depth:   node.Depth + 1,
			})
			stats.TotalFiles++
			node.FileCount++

		case entry.IsDir():
			child := &Node{
				Name:    entry.Name(),
				Type:    NodeDirectory,
				Path:    rel,
				AbsPath: abs,
				Depth:   node.Depth + 1,
			}
			if err := s.walkDir(child, q, root, stats); err != nil {
				return err
			}
			node.Children = append(node.Children, child)
			node.Size += child.Size
			node.FileCount += child.FileCount
			node.DirCount += 1 + child.DirCount

		default:
			info, err := entry.Info()
			if err != nil {
				continue
			}
			size := info.Size()
			if q.MaxFileSize > 0 && size > q.MaxFileSize {
				continue
			}
			if stats.TotalSize+size > s.maxTotalSize {
				s.logger.Printf("skipping %s: total size limit reached", rel)
				continue
			}
			if stats.TotalFiles >= s.maxFiles {
				s.logger.Printf("maximum file limit (%d) reached", s.maxFiles)
				return nil
			}

			stats.TotalFiles++
			stats.TotalSize += size
			node.Children = append(node.Children, &Node{
				Name:      entry.Name(),
				Type:      NodeFile,
				Path:      rel,
				AbsPath:   abs,
				Size:      size,
				FileCount: 1,
				Depth:     node.Depth + 1,
			})
			node.Size += size
			node.FileCount++
		}
	}

	node.SortChildren()
	return nil
}

func (s *Service) limitExceeded(stats *Stats, depth int) bool {
	if depth > s.maxDepth {
		s.logger.Printf("maximum depth limit (%d) reached", s.maxDepth)
		return true
	}
	if stats.TotalFiles >= s.maxFiles {
		return true
	}
	if stats.TotalSize >= s.maxTotalSize {
		return true
	}
	return false
}
