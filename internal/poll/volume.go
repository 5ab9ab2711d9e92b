package poll

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// Volume is a default-sink reading.
type Volume struct {
	Sink    string
	Percent int
	Muted   bool
}

// Icon returns the symbolic icon name for the reading.
func (v Volume) Icon() string {
	switch {
	case v.Muted:
		return "audio-volume-muted-symbolic"
	case v.Percent < 33:
		return "audio-volume-low-symbolic"
	case v.Percent < 66:
		return "audio-volume-medium-symbolic"
	default:
		return "audio-volume-high-symbolic"
	}
}

// Label returns the text shown next to the icon.
func (v Volume) Label() string {
	return fmt.Sprintf("%d%%", v.Percent)
}

// VolumeReader reads the default sink through the PulseAudio protocol
// (served by pipewire-pulse on most systems), falling back to wpctl.
type VolumeReader struct {
	mu     sync.Mutex
	client *pulse.Client
	run    Runner
}

// NewVolumeReader creates a reader. The pulse connection is opened lazily
// and reopened after a failure.
func NewVolumeReader(run Runner) *VolumeReader {
	if run == nil {
		run = Exec
	}
	return &VolumeReader{run: run}
}

// Read implements the poll read function.
func (r *VolumeReader) Read(ctx context.Context) (Volume, error) {
	v, perr := r.readPulse()
	if perr == nil {
		return v, nil
	}

	out, err := r.run(ctx, "wpctl", "get-volume", "@DEFAULT_AUDIO_SINK@")
	if err != nil {
		return Volume{}, errors.Join(perr, err)
	}
	return ParseWpctl(string(out))
}

func (r *VolumeReader) readPulse() (Volume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		c, err := pulse.NewClient(pulse.ClientApplicationName("hyprbar"))
		if err != nil {
			return Volume{}, fmt.Errorf("failed to create pulse client: %w", err)
		}
		r.client = c
	}

	sink, err := r.client.DefaultSink()
	if err != nil {
		r.closeLocked()
		return Volume{}, fmt.Errorf("failed to get default sink: %w", err)
	}

	var reply proto.GetSinkInfoReply
	req := proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: sink.ID()}
	if err := r.client.RawRequest(&req, &reply); err != nil {
		r.closeLocked()
		return Volume{}, fmt.Errorf("failed to request sink info: %w", err)
	}

	return Volume{
		Sink:    sink.Name(),
		Percent: ChannelPercent(reply.ChannelVolumes),
		Muted:   reply.Mute,
	}, nil
}

// Close releases the pulse connection.
func (r *VolumeReader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *VolumeReader) closeLocked() {
	if r.client != nil {
		r.client.Close()
		r.client = nil
	}
}

// ChannelPercent averages channel volumes as a 0-100 percentage.
func ChannelPercent(cv proto.ChannelVolumes) int {
	if len(cv) == 0 {
		return 0
	}
	var sum float64
	for _, v := range cv {
		sum += float64(v) / float64(proto.VolumeNorm) * 100.0
	}
	pct := int(sum/float64(len(cv)) + 0.5)
	return min(max(pct, 0), 100)
}

// ParseWpctl parses "Volume: 0.45 [MUTED]" as printed by wpctl get-volume.
func ParseWpctl(out string) (Volume, error) {
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Volume:" {
		return Volume{}, fmt.Errorf("unexpected wpctl output %q", strings.TrimSpace(out))
	}
	level, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Volume{}, fmt.Errorf("invalid wpctl volume %q: %w", fields[1], err)
	}
	return Volume{
		Sink:    "@DEFAULT_AUDIO_SINK@",
		Percent: int(level*100 + 0.5),
		Muted:   strings.Contains(out, "[MUTED]"),
	}, nil
}
