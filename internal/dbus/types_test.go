package dbus

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/message"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		reason   CloseReason
		expected string
	}{
		{CloseReasonExpired, "expired"},
		{CloseReasonDismissed, "dismissed"},
		{CloseReasonClosed, "closed"},
		{CloseReasonUndefined, "undefined"},
		{CloseReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}

func TestCloseReasonFor(t *testing.T) {
	assert.Equal(t, CloseReasonExpired, CloseReasonFor(message.ReasonExpired))
	assert.Equal(t, CloseReasonDismissed, CloseReasonFor(message.ReasonDismissed))
	assert.Equal(t, CloseReasonClosed, CloseReasonFor(message.ReasonClosed))
	assert.Equal(t, CloseReasonUndefined, CloseReasonFor(message.Reason(0)))
}

func notifyBody(urgency byte) []any {
	return []any{
		"firefox",
		uint32(0),
		"firefox-icon",
		"Download Complete",
		"myfile.zip",
		[]string{"default", "Open"},
		map[string]dbus.Variant{
			"urgency":  dbus.MakeVariant(urgency),
			"category": dbus.MakeVariant("transfer.complete"),
		},
		int32(5000),
	}
}

func TestParseNotify(t *testing.T) {
	n, err := ParseNotify(notifyBody(UrgencyCritical))
	require.NoError(t, err)

	assert.Equal(t, "firefox", n.AppName)
	assert.Equal(t, "Download Complete", n.Summary)
	assert.Equal(t, "myfile.zip", n.Body)
	assert.Equal(t, []string{"default", "Open"}, n.Actions)
	assert.Equal(t, UrgencyCritical, n.Urgency())
	assert.Equal(t, "transfer.complete", n.Category())
	assert.Equal(t, 5*time.Second, n.Timeout())
}

func TestParseNotify_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body func() []any
	}{
		{"too short", func() []any { return []any{"app"} }},
		{"bad app_name", func() []any { b := notifyBody(1); b[0] = 42; return b }},
		{"bad replaces_id", func() []any { b := notifyBody(1); b[1] = "x"; return b }},
		{"bad app_icon", func() []any { b := notifyBody(1); b[2] = 1; return b }},
		{"bad summary", func() []any { b := notifyBody(1); b[3] = 1; return b }},
		{"bad body", func() []any { b := notifyBody(1); b[4] = 1; return b }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNotify(tt.body())
			assert.ErrorIs(t, err, ErrMalformedNotify)
		})
	}
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected byte
	}{
		{"no hint", nil, UrgencyNormal},
		{"low", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))}, UrgencyLow},
		{"critical", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))}, UrgencyCritical},
		{"wrong type", map[string]dbus.Variant{"urgency": dbus.MakeVariant("high")}, UrgencyNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Notification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Urgency())
		})
	}
}

func TestTransient(t *testing.T) {
	assert.False(t, (&Notification{}).Transient())
	n := &Notification{Hints: map[string]dbus.Variant{"transient": dbus.MakeVariant(true)}}
	assert.True(t, n.Transient())
}

func TestTimeout(t *testing.T) {
	transient := map[string]dbus.Variant{"transient": dbus.MakeVariant(true)}
	tests := []struct {
		name   string
		expire int32
		hints  map[string]dbus.Variant
		want   time.Duration
	}{
		{name: "server default", expire: -1, want: 0},
		{name: "never expires", expire: 0, want: statusbar.NoTimeout},
		{name: "transient never falls back to default", expire: 0, hints: transient, want: 0},
		{name: "milliseconds", expire: 1500, want: 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Notification{ExpireTimeout: tt.expire, Hints: tt.hints}
			assert.Equal(t, tt.want, n.Timeout())
		})
	}
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo()
	assert.Equal(t, "statusbar", info.Name)
	assert.Equal(t, "1.2", info.SpecVersion)
}
