package menu

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spacerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Render prints item and its submenus down to maxDepth levels as a tree.
func Render(w io.Writer, item *Item, maxDepth int) {
	render(w, item, 0, maxDepth)
}

func render(w io.Writer, item *Item, depth, maxDepth int) {
	indent := strings.Repeat("  ", depth)
	if item.Spacer {
		fmt.Fprintln(w, indent+spacerStyle.Render("────────"))
		return
	}

	mark := "[ ]"
	if item.Checked {
		mark = checkedStyle.Render("[x]")
	}
	name := item.Name
	if item.Disabled {
		name = disabledStyle.Render(name)
	}
	suffix := ""
	if item.Submenu != nil {
		suffix = " >"
	}
	fmt.Fprintf(w, "%s%s %s%s\n", indent, mark, name, suffix)

	if depth+1 >= maxDepth {
		return
	}
	for _, c := range item.Children() {
		render(w, c, depth+1, maxDepth)
	}
}
