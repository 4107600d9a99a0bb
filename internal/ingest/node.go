package ingest

import (
	"os"
	"sort"
	"strings"
)

type NodeType int

const (
	NodeFile NodeType = iota
	NodeDirectory
	NodeSymlink
)

// Node is one entry in the walked file tree. Path is relative to the walk
// root, using forward slashes.
type Node struct {
	Name      string
	Type      NodeType
	Path      string
	AbsPath   string
	Size      int64
	FileCount int
	DirCount  int
	Depth     int
	Children  []*Node
}

// Stats tracks walk-wide totals so limits apply across the whole tree, not
// per directory.
type Stats struct {
	TotalFiles int
	TotalSize  int64
}

// SortChildren orders a directory listing the way the digest presents it:
// README first, then files before directories, hidden entries last, each
// group alphabetical.
func (n *Node) SortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]

		aReadme := strings.EqualFold(a.Name, "readme.md")
		bReadme := strings.EqualFold(b.Name, "readme.md")
		if aReadme != bReadme {
			return aReadme
		}

		aHidden := strings.HasPrefix(a.Name, ".")
		bHidden := strings.HasPrefix(b.Name, ".")
		if aHidden != bHidden {
			return bHidden
		}

		aDir := a.Type == NodeDirectory
		bDir := b.Type == NodeDirectory
		if aDir != bDir {
			return bDir
		}

		return a.Name < b.Name
	})
}

// Content reads the file's bytes and returns them as text. Binary files
// (containing NUL) report a placeholder instead of raw bytes.
func (n *Node) Content() (string, error) {
	if n.Type == NodeSymlink {
		target, err := os.Readlink(n.AbsPath)
		if err != nil {
			return "", err
		}
		return n.Name + " -> " + target, nil
	}

	data, err := os.ReadFile(n.AbsPath)
	if err != nil {
		return "", err
	}
	if isBinary(data) {
		return "[binary file]", nil
	}
	return string(data), nil
}

func isBinary(data []byte) bool {
	limit := len(data)
	if limit > 8192 {
		limit = 8192
	}
	for _, b := range data[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
