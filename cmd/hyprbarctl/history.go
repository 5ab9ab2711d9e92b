package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hyprbar/internal/adapter/output"
	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/core"
	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/store"
)

// commandTimeout bounds the store work of one CLI invocation.
const commandTimeout = 10 * time.Second

type historyOptions struct {
	// Filter options
	since   string
	app     string
	urgency string
	unread  bool
	limit   int
	filter  string
	search  string

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format   string
	field    string
	template string

	// Lookup options
	index int
}

var historyOpts historyOptions

var historyCmd = &cobra.Command{
	Use:     "history [id]",
	Aliases: []string{"get", "ls"},
	Short:   "Query and output notification history",
	Long: `Query the notification history recorded by hyprbar.

Without arguments, lists notifications newest first. With an id (a numeric id,
a UID, or a whole line picked from dmenu output) prints that notification.

Filter expressions combine comma separated conditions:
  fields     app, summary, body, category, urgency, read, closed, reason, age
  operators  = != ~ (contains) ~= (regex) > < >= <=

Examples:
  # Unread notifications from the last hour
  hyprbarctl history --unread --since 1h

  # Critical notifications from slack
  hyprbarctl history --filter 'app=slack,urgency>=critical'

  # Pick one with fuzzel and copy its body
  hyprbarctl history -f dmenu | fuzzel -d | hyprbarctl history --field body | wl-copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	f := historyCmd.Flags()
	f.StringVar(&historyOpts.since, "since", "",
		"Show notifications from the last duration (e.g., 1h, 7d, 1w; 0=all)")
	f.StringVar(&historyOpts.app, "app", "",
		"Filter by application name (exact match)")
	f.StringVar(&historyOpts.urgency, "urgency", "",
		"Filter by urgency (low, normal, critical)")
	f.BoolVarP(&historyOpts.unread, "unread", "u", false,
		"Only unread notifications")
	f.IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Maximum number of notifications to show (0=unlimited)")
	f.StringVar(&historyOpts.filter, "filter", "",
		"Filter expression (e.g., 'app=slack,urgency>=normal')")
	f.StringVarP(&historyOpts.search, "search", "s", "",
		"Search in summary, body and app name")

	f.StringVar(&historyOpts.sortBy, "sort", "",
		"Sort by field (timestamp, app, urgency, id)")
	f.StringVar(&historyOpts.sortOrder, "order", "",
		"Sort order (asc, desc)")

	f.StringVarP(&historyOpts.format, "format", "f", string(output.FormatPlain),
		fmt.Sprintf("Output format %v", output.Formats()))
	f.StringVar(&historyOpts.field, "field", "",
		"Output a single field (id, uid, app, summary, body, category, icon, urgency, time, all)")
	f.StringVar(&historyOpts.template, "template", "",
		"Go template, or the name of a configured template")

	f.IntVar(&historyOpts.index, "index", 0,
		"Select the notification at this 1-based position of the listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, err := openStore()
	if err != nil {
		return err
	}

	opts := historyOpts
	if !cmd.Flags().Changed("since") {
		opts.since = cfg.Filter.Since
	}
	if !cmd.Flags().Changed("limit") {
		opts.limit = cfg.Filter.Limit
	}
	if opts.sortBy == "" {
		opts.sortBy = cfg.Sort.Field
	}
	if opts.sortOrder == "" {
		opts.sortOrder = cfg.Sort.Order
	}

	// A direct reference ignores the listing filters.
	if len(args) > 0 {
		all, err := s.List(ctx, store.FilterOptions{})
		if err != nil {
			return err
		}
		ref := output.ParseSelection(args[0])
		n := core.LookupByID(all, ref)
		if n == nil {
			return fmt.Errorf("notification %q not found", ref)
		}
		return writeOne(os.Stdout, cmd, n, opts)
	}

	notifications, err := queryHistory(ctx, s, opts)
	if err != nil {
		return err
	}

	if opts.index > 0 {
		n := core.LookupByIndex(notifications, opts.index)
		if n == nil {
			return fmt.Errorf("no notification at index %d", opts.index)
		}
		return writeOne(os.Stdout, cmd, n, opts)
	}

	if opts.field != "" {
		for i := range notifications {
			v, err := output.FormatField(&notifications[i], opts.field)
			if err != nil {
				return err
			}
			fmt.Println(v)
		}
		return nil
	}

	formatter, err := newFormatter(opts, cfg)
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, notifications)
}

// queryHistory pushes the simple filters into the store and applies the
// expression, search, sort and limit in memory.
func queryHistory(ctx context.Context, s *store.Store, opts historyOptions) ([]model.Notification, error) {
	q := store.FilterOptions{
		App:    opts.app,
		Unread: opts.unread,
	}

	since, err := core.ParseDuration(opts.since)
	if err != nil {
		return nil, err
	}
	q.Since = since

	if opts.urgency != "" {
		u, err := core.ParseUrgency(opts.urgency)
		if err != nil {
			return nil, err
		}
		q.Urgency = &u
	}

	var expr *core.FilterExpr
	if opts.filter != "" {
		if expr, err = core.ParseFilter(opts.filter); err != nil {
			return nil, err
		}
	}

	notifications, err := s.List(ctx, q)
	if err != nil {
		return nil, err
	}
	logger.Debug("queried history", "count", len(notifications))

	notifications = core.Apply(notifications, expr)
	notifications = core.Search(notifications, opts.search)
	core.Sort(notifications, core.SortOptions{
		Field: core.ParseSortField(opts.sortBy),
		Order: core.ParseSortOrder(opts.sortOrder),
	})

	if opts.limit > 0 && len(notifications) > opts.limit {
		notifications = notifications[:opts.limit]
	}
	return notifications, nil
}

// writeOne prints a single notification: one field, or the whole record
// as JSON unless a format was asked for.
func writeOne(w io.Writer, cmd *cobra.Command, n *model.Notification, opts historyOptions) error {
	if opts.field != "" {
		v, err := output.FormatField(n, opts.field)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, v)
		return err
	}

	if !cmd.Flags().Changed("format") {
		opts.format = string(output.FormatJSON)
	}
	formatter, err := newFormatter(opts, cfg)
	if err != nil {
		return err
	}
	return formatter.Format(w, []model.Notification{*n})
}

// newFormatter resolves --format and --template. A template value naming a
// configured template is replaced by its text.
func newFormatter(opts historyOptions, c *config.Config) (output.Formatter, error) {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	fo := output.DefaultFormatterOptions()
	fo.Template = opts.template
	if c != nil {
		if named := c.GetTemplate(opts.template); named != "" {
			fo.Template = named
		}
		if fo.Template == "" && format == output.FormatDmenu {
			fo.Template = c.Templates.Dmenu
		}
	}
	return output.NewFormatter(format, fo)
}
