// Package display draws the shell with GTK4 and Wayland layer-shell: one bar
// window per monitor binding, a window per visible toast, switcher popovers
// and workspace previews. Everything in it runs on the GTK main thread.
package display
