// Package dbus feeds desktop notifications into status bars. It can either
// observe org.freedesktop.Notifications traffic next to another daemon, or
// own the bus name and act as the notification server itself.
package dbus
