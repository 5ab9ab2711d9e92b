package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/adapter/output"
	"github.com/jmylchreest/hyprbar/internal/config"
	"github.com/jmylchreest/hyprbar/internal/model"
	"github.com/jmylchreest/hyprbar/internal/store"
)

func init() {
	logger = slog.New(slog.DiscardHandler)
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	now := time.Now()
	s := store.NewStore(store.NewMemoryPersistence(), logger)
	t.Cleanup(func() { _ = s.Close() })

	rows := []model.Notification{
		{ID: 1, AppName: "slack", Summary: "deploy failed", Urgency: model.UrgencyCritical, CreatedAt: now.Add(-3 * time.Hour).Unix()},
		{ID: 2, AppName: "firefox", Summary: "download done", Urgency: model.UrgencyLow, CreatedAt: now.Add(-2 * time.Hour).Unix(), Read: true},
		{ID: 3, AppName: "slack", Summary: "standup", Urgency: model.UrgencyNormal, CreatedAt: now.Add(-time.Minute).Unix()},
	}
	for i := range rows {
		require.NoError(t, s.Save(context.Background(), &rows[i], false))
	}
	return s
}

func ids(ns []model.Notification) []uint64 {
	out := make([]uint64, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestQueryHistory(t *testing.T) {
	s := seededStore(t)

	tests := []struct {
		name string
		opts historyOptions
		want []uint64
	}{
		{"all newest first", historyOptions{}, []uint64{3, 2, 1}},
		{"since", historyOptions{since: "1h"}, []uint64{3}},
		{"app", historyOptions{app: "slack"}, []uint64{3, 1}},
		{"urgency", historyOptions{urgency: "critical"}, []uint64{1}},
		{"unread", historyOptions{unread: true}, []uint64{3, 1}},
		{"filter", historyOptions{filter: "urgency>=normal,summary~dep"}, []uint64{1}},
		{"search", historyOptions{search: "FIREFOX"}, []uint64{2}},
		{"sort by app asc", historyOptions{sortBy: "app", sortOrder: "asc"}, []uint64{2, 1, 3}},
		{"limit after sort", historyOptions{limit: 2, sortOrder: "asc"}, []uint64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queryHistory(context.Background(), s, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestQueryHistory_Errors(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	_, err := queryHistory(ctx, s, historyOptions{since: "soon"})
	assert.Error(t, err)
	_, err = queryHistory(ctx, s, historyOptions{urgency: "panic"})
	assert.Error(t, err)
	_, err = queryHistory(ctx, s, historyOptions{filter: "colour=red"})
	assert.Error(t, err)
}

func TestNewFormatter(t *testing.T) {
	c := config.DefaultConfig()
	c.Templates.Custom["short"] = "{{.ID}}:{{.Summary}}"
	ns := []model.Notification{{ID: 7, AppName: "app", Summary: "hello"}}

	render := func(opts historyOptions) string {
		f, err := newFormatter(opts, c)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, f.Format(&buf, ns))
		return buf.String()
	}

	assert.Equal(t, "7:hello\n", render(historyOptions{format: "plain", template: "short"}))
	assert.Equal(t, "7\n", render(historyOptions{format: "ids"}))
	assert.True(t, strings.HasPrefix(render(historyOptions{format: "dmenu"}), "7 | app | hello"))

	_, err := newFormatter(historyOptions{format: "xml"}, c)
	assert.Error(t, err)
}

func TestPruneCandidates(t *testing.T) {
	now := time.Now()
	ns := []model.Notification{
		{ID: 1, CreatedAt: now.Add(-72 * time.Hour).Unix()},
		{ID: 2, CreatedAt: now.Add(-50 * time.Hour).Unix()},
		{ID: 3, CreatedAt: now.Add(-time.Hour).Unix()},
		{ID: 4, CreatedAt: now.Unix()},
	}
	cutoff := now.Add(-48 * time.Hour)

	assert.Equal(t, []uint64{2, 1}, ids(pruneCandidates(ns, cutoff, true, 0)))
	assert.Equal(t, []uint64{2, 1}, ids(pruneCandidates(ns, time.Time{}, false, 2)))
	assert.Equal(t, []uint64{3, 2, 1}, ids(pruneCandidates(ns, cutoff, true, 1)))
	assert.Empty(t, pruneCandidates(ns, time.Time{}, false, 0))

	// The highest id survives even when it is the oldest.
	ns[0].ID = 9
	assert.Equal(t, []uint64{2}, ids(pruneCandidates(ns, cutoff, true, 0)))
}

func TestBuildStatus(t *testing.T) {
	empty := buildStatus(nil)
	assert.Equal(t, "", empty.Text)
	assert.Equal(t, "empty", empty.Class)

	var unread []model.Notification
	for i := range 7 {
		unread = append(unread, model.Notification{ID: uint64(i + 1), AppName: "app", Summary: "s", Urgency: model.UrgencyLow})
	}
	unread[3].Urgency = model.UrgencyCritical

	st := buildStatus(unread)
	assert.Equal(t, "7", st.Text)
	assert.Equal(t, "critical", st.Class)
	assert.Equal(t, "critical", st.Alt)
	assert.Equal(t, 7, st.Percentage)
	assert.Contains(t, st.Tooltip, "7 unread")
	assert.Contains(t, st.Tooltip, "... and 2 more")

	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, st))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "7", decoded["text"])
}

func TestParseActions(t *testing.T) {
	actions, err := parseActions([]string{"default=Open", "snooze", " later = Later "})
	require.NoError(t, err)
	assert.Equal(t, []model.Action{
		{Key: "default", Label: "Open"},
		{Key: "snooze", Label: "snooze"},
		{Key: "later", Label: "Later"},
	}, actions)

	_, err = parseActions([]string{"=Open"})
	assert.Error(t, err)
}

func TestExpireTimeout(t *testing.T) {
	assert.Equal(t, int32(-1), expireTimeout(-time.Millisecond))
	assert.Equal(t, int32(0), expireTimeout(0))
	assert.Equal(t, int32(5000), expireTimeout(5*time.Second))
	assert.Equal(t, int32(1<<31-1), expireTimeout(1000*time.Hour))
}

func TestReadSelections(t *testing.T) {
	in := strings.NewReader("12 | 5m | slack | standup\n\n13\n")
	refs, err := readSelections(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "13"}, refs)
}

func TestWriteIfAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	calls := 0
	write := func() error {
		calls++
		return os.WriteFile(path, []byte("x"), 0o600)
	}

	wrote, err := writeIfAbsent(path, false, write)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = writeIfAbsent(path, false, write)
	require.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = writeIfAbsent(path, true, write)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, 2, calls)
}

func TestOutputFormatsListed(t *testing.T) {
	assert.Contains(t, historyCmd.Flag("format").Usage, string(output.FormatYAML))
}
