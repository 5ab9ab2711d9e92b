// Package capture takes workspace thumbnails. Every capture goes through a
// fresh memfd: the producer writes one frame into it, the frame is mapped
// read-only, decoded and scaled, and the mapping is released before the
// thumbnail leaves the package.
package capture
