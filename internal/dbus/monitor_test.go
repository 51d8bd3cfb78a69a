package dbus

import (
	"context"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/severity"
)

func notifyCall(iface, member string, body []any) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeMethodCall,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldInterface: dbus.MakeVariant(iface),
			dbus.FieldMember:    dbus.MakeVariant(member),
		},
		Body: body,
	}
}

func TestMonitor_HandleMessage(t *testing.T) {
	m := NewMonitor(DefaultMapping(), nil)
	assert.Equal(t, "dbus", m.Name())

	var got []input.Event
	h := input.HandlerFunc(func(_ context.Context, ev input.Event) error {
		got = append(got, ev)
		return nil
	})

	ctx := context.Background()
	m.handleMessage(ctx, notifyCall(Interface, "Notify", notifyBody(UrgencyCritical)), h)
	m.handleMessage(ctx, notifyCall(Interface, "CloseNotification", []any{uint32(1)}), h)
	m.handleMessage(ctx, notifyCall("org.example.Other", "Notify", notifyBody(UrgencyLow)), h)
	m.handleMessage(ctx, notifyCall(Interface, "Notify", []any{"short"}), h)

	signal := notifyCall(Interface, "Notify", notifyBody(UrgencyLow))
	signal.Type = dbus.TypeSignal
	m.handleMessage(ctx, signal, h)

	require.Len(t, got, 1)
	assert.Equal(t, severity.TypeError, got[0].Type)
	assert.Equal(t, "Download Complete: myfile.zip", got[0].Content)
	assert.Equal(t, "firefox", got[0].Footer)
	assert.Equal(t, "dbus", got[0].Source)
}
