// Package hyprland talks to the Hyprland compositor over its two unix sockets.
//
// The event socket (.socket2.sock) streams "name>>payload" lines; Listener
// turns them into Events and survives compositor restarts by reconnecting
// after a fixed backoff. The request socket (.socket.sock) answers one
// command per connection; Client wraps the JSON ("j/") queries the shell
// needs and the dispatch command used for workspace switching.
package hyprland
