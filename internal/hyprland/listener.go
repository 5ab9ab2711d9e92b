package hyprland

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

// RestartBackoff is the fixed delay between reconnect attempts.
const RestartBackoff = 2 * time.Second

// ErrAlreadyRunning is returned when Run is called on a running Listener.
var ErrAlreadyRunning = errors.New("listener already running")

// MonitorResolver finds the monitor a workspace lives on.
type MonitorResolver interface {
	WorkspaceMonitor(ctx context.Context, id int) (string, error)
}

// Listener forwards compositor events. It reconnects forever: a dial
// failure, read error, EOF or malformed line all wait RestartBackoff and
// start a new session. Events emitted while disconnected are lost.
type Listener struct {
	socketPath string
	resolver   MonitorResolver
	backoff    time.Duration
	logger     *slog.Logger

	running  atomic.Bool
	sessions atomic.Int64
}

// NewListener creates a listener for the event socket at path. resolver may
// be nil, in which case workspace events carry no monitor name.
func NewListener(path string, resolver MonitorResolver, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		socketPath: path,
		resolver:   resolver,
		backoff:    RestartBackoff,
		logger:     logger,
	}
}

// SetBackoff overrides the reconnect delay.
func (l *Listener) SetBackoff(d time.Duration) {
	l.backoff = d
}

// Sessions returns how many connections have been established.
func (l *Listener) Sessions() int64 {
	return l.sessions.Load()
}

// Run forwards events to out until ctx is cancelled.
func (l *Listener) Run(ctx context.Context, out chan<- Event) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		err := l.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("compositor event stream lost, restarting",
			"error", err, "backoff", l.backoff)

		timer := time.NewTimer(l.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails.
func (l *Listener) session(ctx context.Context, out chan<- Event) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", l.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to event socket: %w", err)
	}
	l.sessions.Add(1)
	l.logger.Debug("connected to compositor event socket", "path", l.socketPath)

	// Unblock the scanner when the context ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		ev, ok, err := ParseEvent(scanner.Text())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if ev.needsMonitor() && l.resolver != nil {
			l.resolveMonitor(ctx, &ev)
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	return io.EOF
}

func (l *Listener) resolveMonitor(ctx context.Context, ev *Event) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	monitor, err := l.resolver.WorkspaceMonitor(ctx, ev.WorkspaceID)
	if err != nil {
		l.logger.Debug("failed to resolve workspace monitor", "workspace", ev.WorkspaceID, "error", err)
		return
	}
	ev.Monitor = monitor
}
