package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/readmit/pkg/config"

	"gopkg.in/yaml.v3"
)

// PreferenceKey is the stable yaml key of the persisted theme.
const PreferenceKey = "theme"

type preferenceFile struct {
	Theme string `yaml:"theme"`
}

// FileStore persists the theme as yaml at Path.
type FileStore struct {
	Path string
}

// DefaultStore stores the preference under the XDG state directory.
// It returns nil when no state directory can be determined.
func DefaultStore() Store {
	dir := config.StateDir()
	if dir == "" {
		return nil
	}
	return FileStore{Path: filepath.Join(dir, "theme.yaml")}
}

// Load implements Store. A missing file is not an error.
func (s FileStore) Load() (Theme, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Light, false, nil
		}
		return Light, false, fmt.Errorf("reading theme preference: %w", err)
	}
	var pf preferenceFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return Light, false, fmt.Errorf("parsing theme preference: %w", err)
	}
	t, ok := Parse(pf.Theme)
	return t, ok, nil
}

// Save implements Store.
func (s FileStore) Save(t Theme) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(preferenceFile{Theme: t.String()})
	if err != nil {
		return fmt.Errorf("marshaling theme preference: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing theme preference: %w", err)
	}
	return nil
}
