// Package theme tracks the dashboard's light/dark color scheme.
//
// The Controller is the only writer of the active Theme. Toggle flips it,
// persists the preference (best effort) and notifies listeners so the map
// and charts can restyle in place without refetching any data.
package theme

import (
	"strings"

	"github.com/vanderheijden86/readmit/pkg/debug"
)

// Theme is the active color scheme.
type Theme int

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// Parse reads a persisted theme name.
func Parse(s string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, true
	case "dark":
		return Dark, true
	}
	return Light, false
}

// Flip returns the other theme.
func (t Theme) Flip() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// ToggleLabel is the caption of the toggle control: it names the theme the
// control switches to.
func (t Theme) ToggleLabel() string {
	if t == Dark {
		return "Light Mode"
	}
	return "Dark Mode"
}

// Store persists the theme preference between sessions.
type Store interface {
	// Load returns the saved theme; ok is false when nothing was saved.
	Load() (t Theme, ok bool, err error)
	Save(t Theme) error
}

// Listener is called synchronously after every toggle.
type Listener func(Theme, Palette)

// Controller owns the active Theme. It is not safe for concurrent use; the
// dashboard only touches it from its update loop.
type Controller struct {
	current   Theme
	store     Store
	listeners []Listener
}

// NewController resolves the initial theme: the persisted preference, else
// the environment signal from detectDark, else Light. store and detectDark
// may be nil.
func NewController(store Store, detectDark func() bool) *Controller {
	c := &Controller{current: Light, store: store}
	if store != nil {
		t, ok, err := store.Load()
		switch {
		case err != nil:
			debug.Log("theme: load preference: %v", err)
		case ok:
			c.current = t
			return c
		}
	}
	if detectDark != nil && detectDark() {
		c.current = Dark
	}
	return c
}

// Theme returns the active theme.
func (c *Controller) Theme() Theme { return c.current }

// Palette returns the palette of the active theme.
func (c *Controller) Palette() Palette { return PaletteFor(c.current) }

// Toggle flips the theme, persists it and notifies listeners in
// registration order. A failed save is logged and otherwise ignored.
func (c *Controller) Toggle() Theme {
	c.current = c.current.Flip()
	if c.store != nil {
		if err := c.store.Save(c.current); err != nil {
			debug.Log("theme: save preference: %v", err)
		}
	}
	p := PaletteFor(c.current)
	for _, l := range c.listeners {
		l(c.current, p)
	}
	return c.current
}

// OnChange registers l. There is no unsubscribe.
func (c *Controller) OnChange(l Listener) {
	if l != nil {
		c.listeners = append(c.listeners, l)
	}
}
