package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTokenCount(t *testing.T) {
	assert.Equal(t, "532", FormatTokenCount(532))
	assert.Equal(t, "1.2k", FormatTokenCount(1200))
	assert.Equal(t, "3.4M", FormatTokenCount(3_400_000))
	assert.Equal(t, "0", FormatTokenCount(0))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("a", 100)))
}

func TestFormatTree_Glyphs(t *testing.T) {
	root := &Node{
		Name: "widgets",
		Type: NodeDirectory,
		Children: []*Node{
			{Name: "README.md", Type: NodeFile},
			{Name: "src", Type: NodeDirectory, Children: []*Node{
				{Name: "main.go", Type: NodeFile},
			}},
		},
	}

	tree := formatTree(root)

	assert.Contains(t, tree, "└── widgets/")
	assert.Contains(t, tree, "├── README.md")
	assert.Contains(t, tree, "└── src/")
	assert.Contains(t, tree, "    └── main.go")
}

func TestSortChildren(t *testing.T) {
	n := &Node{
		Type: NodeDirectory,
		Children: []*Node{
			{Name: "zz.go", Type: NodeFile},
			{Name: ".env.example", Type: NodeFile},
			{Name: "src", Type: NodeDirectory},
			{Name: "README.md", Type: NodeFile},
			{Name: "aa.go", Type: NodeFile},
		},
	}
	n.SortChildren()

	names := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"README.md", "aa.go", "zz.go", "src", ".env.example"}, names)
}
