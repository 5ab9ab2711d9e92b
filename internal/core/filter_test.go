package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hyprbar/internal/model"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"0", 0, false},
		{"", 0, false},
		{"48h", 48 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"xd", 0, true},
		{"-1d", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUrgency(t *testing.T) {
	for in, want := range map[string]int{"low": 0, "0": 0, "Normal": 1, "critical": 2, " 2 ": 2} {
		got, err := ParseUrgency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseUrgency("urgent")
	assert.Error(t, err)
}

func TestParseFilter_Errors(t *testing.T) {
	for _, expr := range []string{
		"nope=1",
		"app",
		"urgency=extreme",
		"read=maybe",
		"body~=(",
		"urgency~=1",
		"age<forever",
	} {
		_, err := ParseFilter(expr)
		assert.Error(t, err, expr)
	}
}

func TestParseFilter_Empty(t *testing.T) {
	f, err := ParseFilter(" , ")
	require.NoError(t, err)
	assert.Empty(t, f.Conditions)
	assert.True(t, f.Match(model.Notification{}))
}

func TestFilterExpr_Match(t *testing.T) {
	now := time.Now()
	recent := model.Notification{
		ID: 1, AppName: "Slack", Summary: "Build failed", Body: "pipeline #42",
		Urgency: model.UrgencyCritical, CreatedAt: now.Add(-10 * time.Minute).Unix(),
	}
	old := model.Notification{
		ID: 2, AppName: "firefox", Summary: "Download complete", Category: "transfer.complete",
		Urgency: model.UrgencyLow, CreatedAt: now.Add(-3 * time.Hour).Unix(),
		Read: true, ClosedAt: now.Add(-2 * time.Hour).Unix(), CloseReason: model.CloseReasonDismissed,
	}

	tests := []struct {
		expr      string
		recent    bool
		oldResult bool
	}{
		{"app=slack", true, false},
		{"app!=slack", false, true},
		{"summary~build", true, false},
		{"body~=#[0-9]+", true, false},
		{"cat~transfer", false, true},
		{"urgency>=normal", true, false},
		{"urgency<normal", false, true},
		{"read=true", false, true},
		{"seen=false", true, false},
		{"closed=true", false, true},
		{"reason=dismissed", false, true},
		{"age<1h", true, false},
		{"age>1h", false, true},
		{"app=slack,urgency=critical", true, false},
		{"app=slack,read=true", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.recent, f.Match(recent), "recent")
			assert.Equal(t, tt.oldResult, f.Match(old), "old")
		})
	}
}

func TestApply(t *testing.T) {
	notifications := []model.Notification{
		{ID: 1, AppName: "a"},
		{ID: 2, AppName: "b"},
		{ID: 3, AppName: "a"},
	}

	f, err := ParseFilter("app=a")
	require.NoError(t, err)
	got := Apply(notifications, f)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(3), got[1].ID)

	assert.Len(t, Apply(notifications, nil), 3)
}
