// Package colorscheme loads TOML colorschemes, falling back to the
// embedded default for unknown names or unset keys.
package colorscheme

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultScheme string

// Scheme holds terminal color values (lipgloss color strings: ANSI256
// numbers or hex).
type Scheme struct {
	Header    string `toml:"header"`
	Status    string `toml:"status"`
	StatusBg  string `toml:"status_bg"`
	Selected  string `toml:"selected"`
	Completed string `toml:"completed"`
	Project   string `toml:"project"`
	Context   string `toml:"context"`
	Metadata  string `toml:"metadata"`
	PriorityA string `toml:"priority_a"`
	PriorityB string `toml:"priority_b"`
	PriorityC string `toml:"priority_c"`
}

// Default returns the built-in scheme.
func Default() Scheme {
	var s Scheme
	// The embedded scheme is validated by tests; a decode failure here
	// would be a packaging bug.
	_, _ = toml.Decode(defaultScheme, &s)
	return s
}

// Load resolves a scheme by name from dir ("<dir>/<name>.toml"). The name
// "default" and missing files yield the built-in scheme; a file that
// exists but fails to parse is an error. Unset keys inherit defaults.
func Load(name, dir string) (Scheme, error) {
	s := Default()
	if name == "" || name == "default" {
		return s, nil
	}
	path := filepath.Join(dir, name+".toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return s, fmt.Errorf("invalid colorscheme %q: %w", name, err)
	}
	return s, nil
}
