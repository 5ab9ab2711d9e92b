// Package source runs the shell's Source Workers.
//
// A Source Worker owns one blocking connection to an external source (the
// compositor event socket, a poll loop, the capture producer, the session
// bus) and forwards typed values into its own channel. Workers never share
// state with each other or with the UI; the channel is the only hand-off.
//
// The Supervisor starts every worker on its own goroutine and keeps them
// alive for the lifetime of the process context.
package source
