// Package daemon provides the main orchestration for statusbar.
// It builds the bars named by the configuration and wires them to the
// display manager, the input router, the audio chime and the D-Bus
// binding, and applies configuration reloads to the running bars.
package daemon
