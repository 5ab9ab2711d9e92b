package poll

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/net"
)

// skipPrefixes are virtual interfaces that never count as a link.
var skipPrefixes = []string{"lo", "docker", "br-", "veth", "tailscale", "virbr"}

// Link is a network reading.
type Link struct {
	Interface string
	Wired     bool
	Wireless  bool
	SSID      string
	RSSI      int // dBm, -100 when unknown
	RxBytes   uint64
	TxBytes   uint64
}

// Online reports whether any usable link is up.
func (l Link) Online() bool {
	return l.Interface != ""
}

// Icon returns the symbolic icon name for the reading.
func (l Link) Icon() string {
	switch {
	case l.Wired:
		return "network-wired-symbolic"
	case !l.Wireless:
		return "network-offline-symbolic"
	case l.RSSI >= -50:
		return "network-wireless-signal-excellent-symbolic"
	case l.RSSI >= -60:
		return "network-wireless-signal-good-symbolic"
	case l.RSSI >= -70:
		return "network-wireless-signal-ok-symbolic"
	default:
		return "network-wireless-signal-none-symbolic"
	}
}

// Label returns the text shown next to the icon.
func (l Link) Label() string {
	switch {
	case l.Wired:
		return "Wired"
	case l.Wireless:
		return l.SSID
	default:
		return "Offline"
	}
}

// NetworkReader finds the active link. A wired link wins over wireless.
type NetworkReader struct {
	SysRoot    string
	Interfaces func(ctx context.Context) (net.InterfaceStatList, error)
	Counters   func(ctx context.Context) ([]net.IOCountersStat, error)
	Run        Runner
}

// NewNetworkReader reads from /sys/class/net and gopsutil.
func NewNetworkReader(run Runner) *NetworkReader {
	if run == nil {
		run = Exec
	}
	return &NetworkReader{
		SysRoot:    "/sys/class/net",
		Interfaces: net.InterfacesWithContext,
		Counters: func(ctx context.Context) ([]net.IOCountersStat, error) {
			return net.IOCountersWithContext(ctx, true)
		},
		Run: run,
	}
}

// Read implements the poll read function.
func (r *NetworkReader) Read(ctx context.Context) (Link, error) {
	ifaces, err := r.Interfaces(ctx)
	if err != nil {
		return Link{}, err
	}

	var wired, wireless string
	for _, iface := range ifaces {
		if skipInterface(iface.Name) || !slices.Contains(iface.Flags, "up") {
			continue
		}
		state, err := readTrimmed(filepath.Join(r.SysRoot, iface.Name, "operstate"))
		if err != nil || state != "up" {
			continue
		}
		if isDir(filepath.Join(r.SysRoot, iface.Name, "wireless")) {
			if wireless == "" {
				wireless = iface.Name
			}
		} else if wired == "" {
			wired = iface.Name
		}
	}

	var link Link
	switch {
	case wired != "":
		link = Link{Interface: wired, Wired: true, RSSI: -100}
	case wireless != "":
		link = Link{Interface: wireless, Wireless: true, SSID: wireless, RSSI: -100}
		if out, err := r.Run(ctx, "iwctl", "station", wireless, "show"); err == nil {
			if ssid, rssi, ok := ParseIwctl(string(out)); ok {
				link.SSID = ssid
				link.RSSI = rssi
			}
		}
	default:
		return Link{RSSI: -100}, nil
	}

	if r.Counters != nil {
		if counters, err := r.Counters(ctx); err == nil {
			for _, c := range counters {
				if c.Name == link.Interface {
					link.RxBytes, link.TxBytes = c.BytesRecv, c.BytesSent
					break
				}
			}
		}
	}
	return link, nil
}

func skipInterface(name string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ParseIwctl extracts the connected network and RSSI from
// "iwctl station <if> show". ok is false when not connected.
func ParseIwctl(out string) (ssid string, rssi int, ok bool) {
	rssi = -100
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Connected network"):
			ssid = strings.TrimSpace(strings.TrimPrefix(line, "Connected network"))
		case strings.HasPrefix(line, "RSSI"):
			fields := strings.Fields(strings.TrimPrefix(line, "RSSI"))
			if len(fields) > 0 {
				if n, err := strconv.Atoi(fields[0]); err == nil {
					rssi = n
				}
			}
		}
	}
	return ssid, rssi, ssid != ""
}
