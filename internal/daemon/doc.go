// Package daemon holds the shell-side pieces around the notification
// server: internal notifications, config hot reload and history pruning.
package daemon
