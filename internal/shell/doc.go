// Package shell holds the state the bars and toasts render from.
//
// Everything here is owned by the UI thread: the Dispatcher applies source
// messages to a State, and the views read it back after each drain. Nothing
// in this package blocks or starts goroutines, so it is tested without GTK.
package shell
