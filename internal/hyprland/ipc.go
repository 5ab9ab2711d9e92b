package hyprland

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Monitor is a compositor output as reported by j/monitors.
type Monitor struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	X               int          `json:"x"`
	Y               int          `json:"y"`
	Scale           float64      `json:"scale"`
	Focused         bool         `json:"focused"`
	Disabled        bool         `json:"disabled"`
	ActiveWorkspace WorkspaceRef `json:"activeWorkspace"`
}

// WorkspaceRef is the short workspace form embedded in other replies.
type WorkspaceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Workspace is a workspace as reported by j/workspaces.
type Workspace struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Monitor         string `json:"monitor"`
	MonitorID       int    `json:"monitorID"`
	Windows         int    `json:"windows"`
	HasFullscreen   bool   `json:"hasfullscreen"`
	LastWindowTitle string `json:"lastwindowtitle"`
}

// Window is a window as reported by j/clients.
type Window struct {
	Address   string       `json:"address"`
	Class     string       `json:"class"`
	Title     string       `json:"title"`
	Workspace WorkspaceRef `json:"workspace"`
	Monitor   int          `json:"monitor"`
	Mapped    bool         `json:"mapped"`
	Hidden    bool         `json:"hidden"`
}

// Client issues requests on the compositor's request socket. The socket serves
// exactly one command per connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a request client for the socket at path.
func NewClient(path string) *Client {
	return &Client{socketPath: path, timeout: 2 * time.Second}
}

// DefaultClient creates a request client for the running compositor instance.
func DefaultClient() (*Client, error) {
	path, err := RequestSocketPath()
	if err != nil {
		return nil, err
	}
	return NewClient(path), nil
}

// Request sends a raw command and returns the full reply.
func (c *Client) Request(ctx context.Context, command string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, command); err != nil {
		return nil, fmt.Errorf("failed to send %q: %w", command, err)
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply to %q: %w", command, err)
	}
	return reply, nil
}

func (c *Client) query(ctx context.Context, what string, v any) error {
	reply, err := c.Request(ctx, "j/"+what)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(reply, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return nil
}

// Monitors returns the compositor's outputs.
func (c *Client) Monitors(ctx context.Context) ([]Monitor, error) {
	var monitors []Monitor
	if err := c.query(ctx, "monitors", &monitors); err != nil {
		return nil, err
	}
	return monitors, nil
}

// Workspaces returns every workspace.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	if err := c.query(ctx, "workspaces", &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Clients returns every mapped window.
func (c *Client) Clients(ctx context.Context) ([]Window, error) {
	var clients []Window
	if err := c.query(ctx, "clients", &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ActiveWorkspace returns the focused workspace.
func (c *Client) ActiveWorkspace(ctx context.Context) (Workspace, error) {
	var ws Workspace
	if err := c.query(ctx, "activeworkspace", &ws); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// ActiveWindow returns the focused window, which is empty when nothing is focused.
func (c *Client) ActiveWindow(ctx context.Context) (Window, error) {
	var client Window
	if err := c.query(ctx, "activewindow", &client); err != nil {
		return Window{}, err
	}
	return client, nil
}

// WorkspaceMonitor returns the name of the monitor holding workspace id.
func (c *Client) WorkspaceMonitor(ctx context.Context, id int) (string, error) {
	workspaces, err := c.Workspaces(ctx)
	if err != nil {
		return "", err
	}
	for _, ws := range workspaces {
		if ws.ID == id {
			return ws.Monitor, nil
		}
	}
	return "", fmt.Errorf("workspace %d not found", id)
}

// Dispatch runs a compositor dispatcher, e.g. Dispatch(ctx, "workspace", "3").
func (c *Client) Dispatch(ctx context.Context, dispatcher string, args ...string) error {
	command := strings.TrimSpace("dispatch " + dispatcher + " " + strings.Join(args, " "))
	reply, err := c.Request(ctx, command)
	if err != nil {
		return err
	}
	if r := strings.TrimSpace(string(reply)); r != "ok" {
		return fmt.Errorf("dispatch %s failed: %s", dispatcher, r)
	}
	return nil
}
