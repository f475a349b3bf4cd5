package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/vanderheijden86/readmit/pkg/theme"
)

func helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# Readmissions dashboard\n\n")
	b.WriteString("Select a state on the map (or type its code) to scope the KPI tiles, ")
	b.WriteString("charts and ranking tables. The map and state table always show every state.\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, k := range keys.all() {
		h := k.Help()
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\nExports are written to the export directory as `<panel>_<state|national>.<ext>`.\n")
	return b.String()
}

// renderHelp renders the key reference for the current theme. Rendering
// errors fall back to the raw markdown.
func renderHelp(t theme.Theme, width int) string {
	style := "light"
	if t == theme.Dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 40)),
	)
	md := helpMarkdown()
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
