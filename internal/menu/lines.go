package menu

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// LineWidth is the display width descriptions and changelogs wrap at.
const LineWidth = 40

// SplitLines breaks text into lines of at most width display columns.
// Existing line breaks are kept and empty lines dropped.
func SplitLines(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		var (
			line strings.Builder
			w    int
		)
		for _, r := range para {
			rw := runewidth.RuneWidth(r)
			if w+rw > width && w > 0 {
				out = append(out, line.String())
				line.Reset()
				w = 0
			}
			line.WriteRune(r)
			w += rw
		}
		if line.Len() > 0 {
			out = append(out, line.String())
		}
	}
	return out
}
