package dashboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextPanel key.Binding
	PrevPanel key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Select    key.Binding
	Reset     key.Binding
	Theme     key.Binding
	Export    key.Binding
	ExportSVG key.Binding
	Copy      key.Binding
	Snapshot  key.Binding
	Prompt    key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	NextPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
	PrevPanel: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous panel")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up / scroll")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down / scroll")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "move left")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "move right")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "filter to state under cursor")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset to national")),
	Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle light/dark")),
	Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export focused panel")),
	ExportSVG: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export map as SVG")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy focused table as CSV")),
	Snapshot:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "SQLite snapshot of all tables")),
	Prompt:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "type a state code")),
	Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refetch current filter")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) all() []key.Binding {
	return []key.Binding{
		k.NextPanel, k.PrevPanel, k.Up, k.Down, k.Left, k.Right, k.Select,
		k.Reset, k.Theme, k.Export, k.ExportSVG, k.Copy, k.Snapshot,
		k.Prompt, k.Refresh, k.Help, k.Quit,
	}
}
