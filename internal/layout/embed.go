package layout

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.xml
var builtinLayouts embed.FS

// GetEmbeddedTemplate returns a built-in bar layout by name, without the
// .xml extension.
func GetEmbeddedTemplate(name string) (*BarLayout, bool) {
	data, err := builtinLayouts.ReadFile(path.Join("templates", name+".xml"))
	if err != nil {
		return nil, false
	}
	l, err := ParseTemplateString(string(data))
	return l, err == nil
}

// ListEmbeddedTemplates returns the names of the built-in layouts, sorted.
func ListEmbeddedTemplates() []string {
	// fs.Glob sorts and only fails on a malformed pattern.
	matches, _ := fs.Glob(builtinLayouts, "templates/*.xml")
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(path.Base(m), ".xml")
	}
	return names
}
