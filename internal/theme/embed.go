package theme

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

// EmbeddedStyles holds the bundled style sheets. Files starting with _ are
// partials, only reachable through @import.
//
//go:embed styles/*.css
var EmbeddedStyles embed.FS

// DefaultStyleName is the name of the built-in default style.
const DefaultStyleName = "default"

func readStyle(file string) (string, bool) {
	data, err := EmbeddedStyles.ReadFile(path.Join("styles", file))
	return string(data), err == nil
}

// GetEmbeddedStyle returns a bundled style by name. Imports are left as is;
// NewEmbeddedTheme resolves them.
func GetEmbeddedStyle(name string) (string, bool) {
	if strings.HasPrefix(name, "_") {
		return "", false
	}
	return readStyle(name + ".css")
}

// GetEmbeddedPartial returns a bundled partial. The leading underscore and
// the extension are optional.
func GetEmbeddedPartial(name string) (string, bool) {
	name = "_" + strings.TrimPrefix(strings.TrimSuffix(name, ".css"), "_")
	return readStyle(name + ".css")
}

// ListEmbeddedStyles returns the bundled style names, partials excluded.
func ListEmbeddedStyles() []string {
	matches, _ := fs.Glob(EmbeddedStyles, "styles/*.css")
	var names []string
	for _, m := range matches {
		if name := strings.TrimSuffix(path.Base(m), ".css"); !strings.HasPrefix(name, "_") {
			names = append(names, name)
		}
	}
	return names
}

// IsEmbeddedStyle reports whether name is a bundled style.
func IsEmbeddedStyle(name string) bool {
	_, found := GetEmbeddedStyle(name)
	return found
}
