package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/benz9527/xbst/lib/tree"
)

type branch uint8

const (
	rootBranch branch = iota
	leftBranch
	rightBranch
)

type palette struct {
	enabled bool
	red     lipgloss.Style
	black   lipgloss.Style
}

func newPalette(enabled bool) palette {
	return palette{
		enabled: enabled,
		red: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		black: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Bold(true),
	}
}

func (p palette) label(key string, node tree.BSTNode[int]) string {
	rb, ok := node.(tree.RBNode[int])
	if !ok {
		return key
	}
	if !p.enabled {
		if rb.Color() == tree.Red {
			return key + "(R)"
		}
		return key + "(B)"
	}
	if rb.Color() == tree.Red {
		return p.red.Render(key)
	}
	return p.black.Render(key)
}

// renderTree prints the tree sideways, right subtree on top, and returns
// the depth it printed. An empty tree prints nothing and returns 0.
func renderTree(w io.Writer, root tree.BSTNode[int], p palette) int {
	return renderNode(w, root, "", rootBranch, p)
}

func renderNode(w io.Writer, node tree.BSTNode[int], prefix string, br branch, p palette) int {
	if node == nil {
		return 0
	}
	rd, ld := 0, 0
	if right := node.Right(); right != nil {
		t := "       "
		if br == leftBranch {
			t = "|      "
		}
		rd = renderNode(w, right, prefix+t, rightBranch, p)
	}
	switch br {
	case rootBranch:
		_, _ = fmt.Fprintf(w, "%s|------+ ", prefix)
	case leftBranch:
		_, _ = fmt.Fprintf(w, "%s\\------+ ", prefix)
	case rightBranch:
		_, _ = fmt.Fprintf(w, "%s/------+ ", prefix)
	}
	_, _ = fmt.Fprintln(w, p.label(fmt.Sprint(node.Key()), node))
	if left := node.Left(); left != nil {
		t := "       "
		if br == rightBranch {
			t = "|      "
		}
		ld = renderNode(w, left, prefix+t, leftBranch, p)
	}
	return 1 + max(rd, ld)
}
