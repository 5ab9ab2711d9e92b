package main

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/core"
	"github.com/jmylchreest/hyprbar/internal/dbus"
	"github.com/jmylchreest/hyprbar/internal/model"
)

var notifyOpts struct {
	app       string
	icon      string
	urgency   string
	category  string
	timeout   time.Duration
	replaces  uint32
	actions   []string
	transient bool
	wait      bool
}

var notifyCmd = &cobra.Command{
	Use:   "notify <summary> [body]",
	Short: "Send a notification through the session bus",
	Long: `Send a notification to whichever server owns org.freedesktop.Notifications.

The assigned id is printed. With --wait, hyprbarctl blocks until the
notification closes and prints the invoked action key, if any.

Examples:
  hyprbarctl notify "Build finished" "all tests passed"
  hyprbarctl notify -u critical "Disk almost full"
  hyprbarctl notify --action open=Open --wait "Review requested"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	f := notifyCmd.Flags()
	f.StringVarP(&notifyOpts.app, "app", "a", "", "Application name (default from [notify] app)")
	f.StringVarP(&notifyOpts.icon, "icon", "i", "", "Icon name or path")
	f.StringVarP(&notifyOpts.urgency, "urgency", "u", "", "Urgency: low, normal, critical (default from [notify] urgency)")
	f.StringVarP(&notifyOpts.category, "category", "c", "", "Notification category")
	f.DurationVarP(&notifyOpts.timeout, "timeout", "t", -time.Millisecond,
		"Expire timeout (negative=server default, 0=never)")
	f.Uint32VarP(&notifyOpts.replaces, "replace", "r", 0, "Id of a notification to replace")
	f.StringArrayVar(&notifyOpts.actions, "action", nil, "Action as key=label (repeatable)")
	f.BoolVar(&notifyOpts.transient, "transient", false, "Do not record in history")
	f.BoolVarP(&notifyOpts.wait, "wait", "w", false, "Wait until the notification closes")
}

func runNotify(cmd *cobra.Command, args []string) error {
	summary, body := args[0], ""
	if len(args) > 1 {
		body = args[1]
	}

	app := cmp.Or(notifyOpts.app, cfg.Notify.App, config.DefaultNotifyApp)
	icon := cmp.Or(notifyOpts.icon, cfg.Notify.Icon)
	urgency, err := core.ParseUrgency(cmp.Or(notifyOpts.urgency, cfg.Notify.Urgency, "normal"))
	if err != nil {
		return err
	}
	actions, err := parseActions(notifyOpts.actions)
	if err != nil {
		return err
	}

	client, err := dbus.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()

	// Subscribe before sending so a fast close is not missed.
	var (
		signals <-chan *godbus.Signal
		stop    func()
	)
	if notifyOpts.wait {
		if signals, stop, err = client.Subscribe(); err != nil {
			return err
		}
		defer stop()
	}

	sendCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	id, err := client.Send(sendCtx, app, summary, body, dbus.SendOptions{
		AppIcon:       icon,
		ReplacesID:    notifyOpts.replaces,
		Actions:       actions,
		Urgency:       urgency,
		Category:      notifyOpts.category,
		Transient:     notifyOpts.transient,
		ExpireTimeout: expireTimeout(notifyOpts.timeout),
	})
	if err != nil {
		return err
	}
	fmt.Println(id)

	if !notifyOpts.wait {
		return nil
	}

	res, err := dbus.Wait(ctx, signals, id)
	if err != nil {
		return err
	}
	if res.ActionKey != "" {
		fmt.Println(res.ActionKey)
	}
	logger.Debug("notification closed", "id", id, "reason", res.Reason)
	return nil
}

// parseActions turns key=label pairs into actions. A bare key is its own
// label.
func parseActions(pairs []string) ([]model.Action, error) {
	actions := make([]model.Action, 0, len(pairs))
	for _, p := range pairs {
		key, label, found := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid action %q: empty key", p)
		}
		if !found {
			label = key
		}
		actions = append(actions, model.Action{Key: key, Label: strings.TrimSpace(label)})
	}
	return actions, nil
}

// expireTimeout converts a duration to the wire value in milliseconds.
func expireTimeout(d time.Duration) int32 {
	if d < 0 {
		return -1
	}
	return int32(min(d.Milliseconds(), int64(1<<31-1)))
}
