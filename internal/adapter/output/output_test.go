package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/hyprbar/internal/model"
)

func testNotifications() []model.Notification {
	now := time.Now()
	return []model.Notification{
		{
			ID:        41,
			UID:       "01HZX3J0Q4T6G7ZKQ2W1C5V8AB",
			AppName:   "Firefox",
			Summary:   "Download Complete",
			Body:      "myfile.zip has\nfinished   downloading",
			CreatedAt: now.Add(-5 * time.Minute).Unix(),
			Urgency:   model.UrgencyNormal,
		},
		{
			ID:          42,
			UID:         "01HZX3J0Q4T6G7ZKQ2W1C5V8CD",
			AppName:     "Slack",
			Summary:     "New Message",
			Body:        "Hello from John",
			CreatedAt:   now.Add(-2 * time.Hour).Unix(),
			ClosedAt:    now.Add(-time.Hour).Unix(),
			CloseReason: model.CloseReasonDismissed,
			Urgency:     model.UrgencyCritical,
			Read:        true,
			Actions:     []model.Action{{Key: "default", Label: "Open"}},
		},
	}
}

func format(t *testing.T, f FormatType, opts FormatterOptions) string {
	t.Helper()
	formatter, err := NewFormatter(f, opts)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, formatter.Format(&buf, testNotifications()))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDmenuFormatter(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(format(t, FormatDmenu, DefaultFormatterOptions())), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "41 | 5m | Firefox | Download Complete: myfile.zip has finished downloading", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "42 | 2h | Slack | New Message"))
}

func TestDmenuFormatter_NoIndex(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.ShowIndex = false
	opts.ShowTime = false
	out := format(t, FormatDmenu, opts)
	assert.True(t, strings.HasPrefix(out, "Firefox | Download Complete"))
}

func TestDmenuFormatter_Template(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}}: {{.AppName}} - {{.Summary}} {{urgencyIcon .Urgency}}\nignored newline"
	lines := strings.Split(strings.TrimSpace(format(t, FormatDmenu, opts)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1: Firefox - Download Complete - ignored newline", lines[0])
	assert.Equal(t, "2: Slack - New Message ! ignored newline", lines[1])
}

func TestNewFormatter_BadTemplate(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Summary"
	_, err := NewFormatter(FormatDmenu, opts)
	assert.Error(t, err)
	_, err = NewFormatter(FormatPlain, opts)
	assert.Error(t, err)
	_, err = NewFormatter("nope", opts)
	assert.Error(t, err)
}

func TestPlainFormatter(t *testing.T) {
	out := format(t, FormatPlain, DefaultFormatterOptions())
	assert.Contains(t, out, "[1] #41 * <Firefox> Download Complete (5 minutes ago)\n")
	assert.Contains(t, out, "    myfile.zip has finished downloading\n")
	assert.Contains(t, out, "[2] #42 <Slack> New Message (2 hours ago)\n", "read notifications have no marker")
}

func TestPlainFormatter_KeepNewlines(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.IncludeNewline = true
	out := format(t, FormatPlain, opts)
	assert.Contains(t, out, "    myfile.zip has\n    finished downloading\n")
}

func TestIDsFormatter(t *testing.T) {
	assert.Equal(t, "41\n42\n", format(t, FormatIDs, FormatterOptions{}))
}

func TestJSONFormatter(t *testing.T) {
	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(format(t, FormatJSON, FormatterOptions{})), &got))
	require.Len(t, got, 2)

	assert.EqualValues(t, 41, got[0]["id"])
	assert.Equal(t, "normal", got[0]["urgency"])
	assert.NotContains(t, got[0], "closed")
	assert.Equal(t, "dismissed", got[1]["close_reason"])
	assert.Equal(t, true, got[1]["read"])
}

func TestYAMLFormatter(t *testing.T) {
	var got []Record
	require.NoError(t, yaml.Unmarshal([]byte(format(t, FormatYAML, FormatterOptions{})), &got))
	require.Len(t, got, 2)

	assert.Equal(t, uint64(42), got[1].ID)
	assert.Equal(t, "critical", got[1].Urgency)
	require.NotNil(t, got[1].Closed)
	assert.Equal(t, []model.Action{{Key: "default", Label: "Open"}}, got[1].Actions)
}

func TestFormatField(t *testing.T) {
	n := testNotifications()[1]

	tests := map[string]string{
		"id":      "42",
		"app":     "Slack",
		"summary": "New Message",
		"body":    "Hello from John",
		"urgency": "critical",
		"full":    "New Message\nHello from John",
	}
	for field, want := range tests {
		got, err := FormatField(&n, field)
		require.NoError(t, err, field)
		assert.Equal(t, want, got, field)
	}

	_, err := FormatField(&n, "colour")
	assert.Error(t, err)
}

func TestParseSelection(t *testing.T) {
	assert.Equal(t, "41", ParseSelection("41 | 5m | Firefox | Download Complete"))
	assert.Equal(t, "42", ParseSelection(" 42 \n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 6))
	assert.Equal(t, "hé", truncate("héllo", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}
