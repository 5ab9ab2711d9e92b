package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/hyprbar/internal/config"
)

// StyleFileName is the file name searched for in each location.
const StyleFileName = "style.css"

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved style sheet.
type Theme struct {
	Name     string    // style name, or the file path for user styles
	Path     string    // empty for embedded styles
	CSS      string    // imports inlined
	ModTime  time.Time // of Path
	Embedded bool
}

// NewTheme loads a style file and inlines its imports.
func NewTheme(path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name:    path,
		Path:    path,
		CSS:     ProcessImports(string(css), filepath.Dir(path), nil),
		ModTime: info.ModTime(),
	}, nil
}

// NewEmbeddedTheme returns a bundled style, falling back to the default.
func NewEmbeddedTheme(name string) *Theme {
	css, found := GetEmbeddedStyle(name)
	if !found {
		name = DefaultStyleName
		css, _ = GetEmbeddedStyle(name)
	}
	return &Theme{
		Name:     name,
		CSS:      ProcessImports(css, "", nil),
		Embedded: true,
	}
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir, then against the bundled
// partials and styles. The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		imported, err := os.ReadFile(fullPath)
		if err != nil {
			baseName := filepath.Base(importPath)
			if strings.HasPrefix(baseName, "_") {
				if css, found := GetEmbeddedPartial(baseName); found {
					return "/* imported (embedded): " + importPath + " */\n" + css
				}
			}
			if css, found := GetEmbeddedStyle(strings.TrimSuffix(baseName, ".css")); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(css, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		return "/* imported: " + importPath + " */\n" +
			ProcessImports(string(imported), filepath.Dir(fullPath), seen)
	})
}

// Reload rereads the style from disk. It reports whether the CSS changed.
func (t *Theme) Reload() (bool, error) {
	if t.Embedded {
		return false, nil
	}
	fresh, err := NewTheme(t.Path)
	if err != nil {
		return false, err
	}
	changed := fresh.CSS != t.CSS
	t.CSS = fresh.CSS
	t.ModTime = fresh.ModTime
	return changed, nil
}

// Search is the ordered list of places a style is looked up.
type Search struct {
	// Explicit is a configured path or bundled style name. When set and not
	// found, discovery continues with the remaining locations.
	Explicit  string
	ConfigDir string
	ExeDir    string
	WorkDir   string
}

// DefaultSearch builds the standard search for the configured style.
func DefaultSearch(explicit string) Search {
	s := Search{Explicit: explicit, ConfigDir: config.ConfigDir()}
	if exe, err := os.Executable(); err == nil {
		s.ExeDir = filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		s.WorkDir = wd
	}
	return s
}

// embeddedName reports whether Explicit names a bundled style rather than a file.
func (s Search) embeddedName() (string, bool) {
	if s.Explicit == "" || strings.ContainsRune(s.Explicit, filepath.Separator) || filepath.Ext(s.Explicit) != "" {
		return "", false
	}
	return s.Explicit, IsEmbeddedStyle(s.Explicit)
}

// Candidates returns the file paths searched, in order.
func (s Search) Candidates() []string {
	var paths []string
	if _, ok := s.embeddedName(); !ok && s.Explicit != "" {
		paths = append(paths, s.Explicit)
	}
	for _, dir := range []string{s.ConfigDir, s.ExeDir, s.WorkDir} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, StyleFileName)
		if len(paths) > 0 && paths[len(paths)-1] == p {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}

// Resolve loads the first style found. A file that exists but cannot be
// read is reported in err together with the embedded default, so the shell
// always has a style to apply.
func (s Search) Resolve() (*Theme, error) {
	if name, ok := s.embeddedName(); ok {
		return NewEmbeddedTheme(name), nil
	}

	for _, path := range s.Candidates() {
		t, err := NewTheme(path)
		if err == nil {
			return t, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return NewEmbeddedTheme(DefaultStyleName), fmt.Errorf("failed to load style %s: %w", path, err)
	}
	return NewEmbeddedTheme(DefaultStyleName), nil
}
