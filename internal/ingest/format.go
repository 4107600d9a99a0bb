package ingest

import (
	"fmt"
	"strings"
)

const separator = "================================================"

// formatTree renders the node hierarchy with box-drawing glyphs, directories
// suffixed with a slash.
func formatTree(root *Node) string {
	var b strings.Builder
	b.WriteString("Directory structure:\n")
	writeTreeLine(&b, root, "", true, true)
	return b.String()
}

func writeTreeLine(b *strings.Builder, n *Node, prefix string, isLast, isRoot bool) {
	name := n.Name
	if n.Type == NodeDirectory {
		name += "/"
	}

	if isRoot {
		fmt.Fprintf(b, "└── %s\n", name)
		prefix = "    "
	} else {
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		fmt.Fprintf(b, "%s%s%s\n", prefix, connector, name)
		if isLast {
			prefix += "    "
		} else {
			prefix += "│   "
		}
	}

	for i, child := range n.Children {
		writeTreeLine(b, child, prefix, i == len(n.Children)-1, false)
	}
}

// formatContent concatenates every file, each introduced by a separator
// block naming its path relative to the root.
func formatContent(root *Node) (string, error) {
	var b strings.Builder
	var write func(n *Node) error
	write = func(n *Node) error {
		switch n.Type {
		case NodeDirectory:
			for _, child := range n.Children {
				if err := write(child); err != nil {
					return err
				}
			}
		case NodeFile, NodeSymlink:
			content, err := n.Content()
			if err != nil {
				return fmt.Errorf("read %s: %w", n.Path, err)
			}
			b.WriteString(separator + "\n")
			if n.Type == NodeSymlink {
				fmt.Fprintf(&b, "Symlink: %s\n", n.Path)
			} else {
				fmt.Fprintf(&b, "File: %s\n", n.Path)
			}
			b.WriteString(separator + "\n")
			b.WriteString(content)
			if !strings.HasSuffix(content, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		return nil
	}
	if err := write(root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// formatSummary builds the short header block shown above the tree.
func formatSummary(q *Query, root *Node, tokens int) string {
	var b strings.Builder
	if q.Owner != "" {
		fmt.Fprintf(&b, "Repository: %s/%s\n", q.Owner, q.Repo)
	} else {
		fmt.Fprintf(&b, "Directory: %s\n", q.Slug)
	}
	if q.Commit != "" {
		fmt.Fprintf(&b, "Commit: %s\n", q.Commit)
	} else if q.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", q.Branch)
	}
	if q.Subpath != "" && q.Subpath != "/" {
		fmt.Fprintf(&b, "Subpath: %s\n", q.Subpath)
	}
	if root.Type == NodeDirectory {
		fmt.Fprintf(&b, "Files analyzed: %d\n", root.FileCount)
	} else {
		fmt.Fprintf(&b, "File: %s\nSize: %d bytes\n", root.Name, root.Size)
	}
	fmt.Fprintf(&b, "Estimated tokens: %s", FormatTokenCount(tokens))
	return b.String()
}

// EstimateTokens approximates the LLM token count of text. One token per
// four characters tracks byte-pair encodings closely enough for a badge.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// FormatTokenCount renders a count as 532, 1.2k or 3.4M.
func FormatTokenCount(tokens int) string {
	switch {
	case tokens >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000)
	case tokens >= 1_000:
		return fmt.Sprintf("%.1fk", float64(tokens)/1_000)
	default:
		return fmt.Sprintf("%d", tokens)
	}
}
