// Package theme finds, loads and hot-reloads the shell's style.css.
//
// A style is looked up in order: an explicit path (or bundled style name)
// from the config, $XDG_CONFIG_HOME/hyprbar/style.css, style.css next to
// the executable, ./style.css, and finally the embedded default.
package theme
