package poll

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoBattery is returned when the system has no battery.
var ErrNoBattery = errors.New("no battery present")

// Battery is a battery reading.
type Battery struct {
	Name     string
	Percent  int
	Status   string // Charging, Discharging, Full, Not charging, Unknown
	Charging bool
}

// Icon returns the symbolic icon name for the reading.
func (b Battery) Icon() string {
	switch {
	case b.Charging:
		return "battery-charging-symbolic"
	case b.Percent <= 10:
		return "battery-empty-symbolic"
	case b.Percent <= 30:
		return "battery-caution-symbolic"
	case b.Percent <= 60:
		return "battery-low-symbolic"
	case b.Percent <= 90:
		return "battery-good-symbolic"
	default:
		return "battery-full-symbolic"
	}
}

// Label returns the text shown next to the icon.
func (b Battery) Label() string {
	return fmt.Sprintf("%d%%", b.Percent)
}

// BatteryReader reads the first battery under a sysfs power_supply directory.
type BatteryReader struct {
	Root string
}

// NewBatteryReader reads from /sys/class/power_supply.
func NewBatteryReader() *BatteryReader {
	return &BatteryReader{Root: "/sys/class/power_supply"}
}

// Read implements the poll read function.
func (r *BatteryReader) Read(context.Context) (Battery, error) {
	matches, err := filepath.Glob(filepath.Join(r.Root, "BAT*"))
	if err != nil {
		return Battery{}, err
	}
	if len(matches) == 0 {
		return Battery{}, ErrNoBattery
	}
	sort.Strings(matches)
	dir := matches[0]

	capacity, err := readTrimmed(filepath.Join(dir, "capacity"))
	if err != nil {
		return Battery{}, fmt.Errorf("failed to read battery capacity: %w", err)
	}
	pct, err := strconv.Atoi(capacity)
	if err != nil {
		return Battery{}, fmt.Errorf("invalid battery capacity %q: %w", capacity, err)
	}

	status, err := readTrimmed(filepath.Join(dir, "status"))
	if err != nil {
		status = "Unknown"
	}

	return Battery{
		Name:     filepath.Base(dir),
		Percent:  min(max(pct, 0), 100),
		Status:   status,
		Charging: status == "Charging",
	}, nil
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
