package poll

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// MPRIS bus names, object path and interfaces.
const (
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisRoot        = "org.mpris.MediaPlayer2"
	mprisPlayer      = "org.mpris.MediaPlayer2.Player"
	mediaLabelLength = 40
)

// Media is the player the bar shows. The zero value means nothing is playing.
type Media struct {
	Player       string // bus name suffix without the instance, e.g. "spotify"
	DesktopEntry string
	Identity     string
	Title        string
	Artist       string
	Playing      bool
}

// Label returns "artist - title", cut to a bar-friendly length.
func (m Media) Label() string {
	if !m.Playing {
		return ""
	}
	text := m.Title
	if m.Artist != "" {
		text = m.Artist + " - " + m.Title
	}
	return truncate(text, mediaLabelLength)
}

func (m Media) Icon() string {
	if !m.Playing {
		return ""
	}
	return "media-playback-start-symbolic"
}

// WindowHints returns the names the player's window class is likely to
// match, most specific first.
func (m Media) WindowHints() []string {
	var hints []string
	for _, h := range []string{m.DesktopEntry, m.Identity, m.Player} {
		if h != "" && !slices.Contains(hints, h) {
			hints = append(hints, h)
		}
	}
	return hints
}

// MediaBus is the part of a session bus connection the media reader uses.
type MediaBus interface {
	ListNames(ctx context.Context) ([]string, error)
	Property(ctx context.Context, dest, iface, name string) (dbus.Variant, error)
	Close() error
}

// MediaReader reports the first playing MPRIS player on the session bus.
type MediaReader struct {
	mu   sync.Mutex
	bus  MediaBus
	dial func() (MediaBus, error)
}

// NewMediaReader creates a reader. The bus connection is opened lazily and
// reopened after a failure; a nil dial uses the session bus.
func NewMediaReader(dial func() (MediaBus, error)) *MediaReader {
	if dial == nil {
		dial = DialSessionBus
	}
	return &MediaReader{dial: dial}
}

// Read implements the poll read function.
func (r *MediaReader) Read(ctx context.Context) (Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bus == nil {
		bus, err := r.dial()
		if err != nil {
			return Media{}, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		r.bus = bus
	}

	m, err := readMedia(ctx, r.bus)
	if err != nil {
		_ = r.bus.Close()
		r.bus = nil
		return Media{}, err
	}
	return m, nil
}

// Close releases the bus connection.
func (r *MediaReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bus == nil {
		return nil
	}
	err := r.bus.Close()
	r.bus = nil
	return err
}

func readMedia(ctx context.Context, bus MediaBus) (Media, error) {
	names, err := bus.ListNames(ctx)
	if err != nil {
		return Media{}, fmt.Errorf("failed to list bus names: %w", err)
	}
	slices.Sort(names)

	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		status, err := bus.Property(ctx, name, mprisPlayer, "PlaybackStatus")
		if err != nil || stringValue(status) != "Playing" {
			// Players come and go between ListNames and the call.
			continue
		}
		meta, err := bus.Property(ctx, name, mprisPlayer, "Metadata")
		if err != nil {
			continue
		}
		title, artist := ParseMetadata(meta)
		if title == "" {
			continue
		}

		m := Media{
			Player:  PlayerName(name),
			Title:   title,
			Artist:  artist,
			Playing: true,
		}
		if v, err := bus.Property(ctx, name, mprisRoot, "DesktopEntry"); err == nil {
			m.DesktopEntry = stringValue(v)
		}
		if v, err := bus.Property(ctx, name, mprisRoot, "Identity"); err == nil {
			m.Identity = stringValue(v)
		}
		return m, nil
	}
	return Media{}, nil
}

// ParseMetadata extracts the title and the joined artist list from an MPRIS
// Metadata property.
func ParseMetadata(v dbus.Variant) (title, artist string) {
	meta, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return "", ""
	}
	if t, ok := meta["xesam:title"]; ok {
		title = stringValue(t)
	}
	if a, ok := meta["xesam:artist"]; ok {
		switch val := a.Value().(type) {
		case []string:
			artist = strings.Join(val, ", ")
		case string:
			artist = val
		}
	}
	return strings.TrimSpace(title), strings.TrimSpace(artist)
}

// PlayerName strips the MPRIS prefix and any instance suffix from a bus name,
// so "org.mpris.MediaPlayer2.chromium.instance7186" becomes "chromium".
func PlayerName(busName string) string {
	name := strings.TrimPrefix(busName, mprisPrefix)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

func stringValue(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// sessionBus adapts a private session bus connection to MediaBus.
type sessionBus struct {
	conn *dbus.Conn
}

// DialSessionBus opens a private session bus connection for media reads.
func DialSessionBus() (MediaBus, error) {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return nil, err
	}
	if err := conn.Auth(nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.Hello(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &sessionBus{conn: conn}, nil
}

func (b *sessionBus) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := b.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

func (b *sessionBus) Property(ctx context.Context, dest, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := b.conn.Object(dest, mprisPath).
		CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, iface, name).
		Store(&v)
	if err != nil {
		return dbus.Variant{}, fmt.Errorf("failed to read %s.%s from %s: %w", iface, name, dest, err)
	}
	return v, nil
}

func (b *sessionBus) Close() error {
	return b.conn.Close()
}
