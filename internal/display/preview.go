package display

import (
	"image"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// textureFromRGBA uploads a thumbnail as a GDK texture.
func textureFromRGBA(img *image.RGBA) *gdk.MemoryTexture {
	b := img.Bounds()
	bytes := glib.NewBytes(img.Pix)
	return gdk.NewMemoryTexture(b.Dx(), b.Dy(), gdk.MemoryR8G8B8A8, bytes, uint(img.Stride))
}
