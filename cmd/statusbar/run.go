package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/adapter/output"
	"github.com/jmylchreest/statusbar/internal/config"
	"github.com/jmylchreest/statusbar/internal/daemon"
	"github.com/jmylchreest/statusbar/internal/dbus"
	"github.com/jmylchreest/statusbar/internal/display"
	"github.com/jmylchreest/statusbar/internal/statusbar"
	"github.com/jmylchreest/statusbar/internal/tui"
)

// shutdownTimeout bounds how long closing the bars may take on exit.
const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Display messages from the configured inputs",
	Long: `Read messages and show them on the configured status bars.

Inputs are files of JSON lines or plain text; "-" reads stdin. JSON lines
look like:

  {"type":"warn","content":"Disk almost full","footer":"disk","timeout":"30s"}
  {"action":"dismiss","bar":"main"}
  {"action":"withdraw","id":"01J..."}

A plain text line is queued as an informational message.

With --dbus, desktop notifications are mapped onto message types by
urgency. "monitor" mode eavesdrops alongside another notification daemon;
"server" mode owns org.freedesktop.Notifications.

Output is one line per view change on stdout (--format line|plain|json),
or an interactive terminal view with --tui.

Examples:
  tail -F ~/.local/state/build.log | statusbar run
  statusbar run --input /run/user/1000/statusbar.fifo --format json
  statusbar run --dbus --dbus-mode server --tui`,
	RunE: runRun,
}

var runOpts struct {
	inputs     []string
	dbus       bool
	dbusMode   string
	format     string
	template   string
	showBar    bool
	showTime   bool
	skipHidden bool
	tui        bool
	watch      bool
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		flags := cmd.Flags()
		flags.StringSliceVarP(&runOpts.inputs, "input", "i", []string{"-"},
			`Input files of message lines ("-" for stdin)`)
		flags.BoolVar(&runOpts.dbus, "dbus", false,
			"Receive desktop notifications (overrides dbus.enabled)")
		flags.StringVar(&runOpts.dbusMode, "dbus-mode", "",
			"D-Bus mode: monitor, server (default from config)")
		flags.StringVarP(&runOpts.format, "format", "f", "",
			"Output format: line, plain, json (default from config)")
		flags.StringVarP(&runOpts.template, "template", "t", "",
			"Go template for line/plain output")
		flags.BoolVar(&runOpts.showBar, "show-bar", false,
			"Prefix each line with the bar name")
		flags.BoolVar(&runOpts.showTime, "show-time", false,
			"Show how long the message has been displayed")
		flags.BoolVar(&runOpts.skipHidden, "skip-hidden", false,
			"Do not print the hidden view between two messages")
		flags.BoolVar(&runOpts.tui, "tui", false,
			"Show an interactive terminal view instead of printing lines")
		flags.BoolVarP(&runOpts.watch, "watch", "w", false,
			"Reload the config file when it changes")
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		d       *daemon.Daemon
		program *tea.Program
		sinks   []statusbar.Surface
	)

	if runOpts.tui {
		model := tui.New(tui.Options{
			Bars: cfg.BarNames(),
			Dismiss: func(ctx context.Context, bar string) error {
				return d.Dismiss(ctx, bar, tui.DismissSource)
			},
		})
		teaOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
		if slices.Contains(runOpts.inputs, "-") {
			// Stdin carries messages; keys come from the terminal.
			teaOpts = append(teaOpts, tea.WithInputTTY())
		}
		program = tea.NewProgram(model, teaOpts...)
		surface := tui.NewSurface(program)
		defer surface.Close()
		sinks = append(sinks, surface)
	} else {
		formatter, err := newFormatter(cfg)
		if err != nil {
			return err
		}
		writer := display.NewWriter(cmd.OutOrStdout(), formatter, logger)
		writer.SkipHidden = runOpts.skipHidden
		sinks = append(sinks, writer)
	}

	var err error
	d, err = daemon.New(daemon.Options{
		Config: cfg,
		Sinks:  sinks,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.Close(closeCtx); err != nil {
			logger.Warn("failed to close status bars", "error", err)
		}
	}()

	sources, err := openSources(runOpts.inputs)
	if err != nil {
		return err
	}

	if cfg.DBus.Enabled {
		switch cfg.DBus.Mode {
		case config.DBusModeServer:
			server := dbus.NewServer(d.Router(), d.DBusMapping(), logger)
			info := dbus.DefaultServerInfo()
			info.Version = version
			server.SetServerInfo(info)
			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start notification server: %w", err)
			}
			defer server.Stop()
		default:
			sources = append(sources, dbus.NewMonitor(d.DBusMapping(), logger))
		}
	}

	if runOpts.watch {
		watcher, err := config.NewWatcher(configPath(), logger, func(next *config.Config) {
			_ = d.Reload(ctx, next)
		})
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		watcher.SetErrorCallback(func(err error) {
			d.Notifier().NotifyConfigError(ctx, err)
		})
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	sourcesDone := make(chan error, 1)
	go func() {
		sourcesDone <- d.Run(ctx, sources...)
	}()

	if program != nil {
		_, err := program.Run()
		stop()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	}

	// Bars keep displaying after the inputs end; only a signal stops the run.
	select {
	case err := <-sourcesDone:
		if err != nil {
			logger.Error("input failed", "error", err)
		} else {
			logger.Debug("all inputs finished")
		}
	case <-ctx.Done():
		return nil
	}
	<-ctx.Done()
	return nil
}

// applyRunFlags overrides config values with the flags that were set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dbus") {
		cfg.DBus.Enabled = runOpts.dbus
	}
	if runOpts.dbusMode != "" {
		cfg.DBus.Mode = runOpts.dbusMode
	}
	if runOpts.format != "" {
		cfg.Output.Format = runOpts.format
	}
	if runOpts.template != "" {
		cfg.Output.Template = runOpts.template
	}
	if flags.Changed("show-time") {
		cfg.Output.ShowTime = runOpts.showTime
	}
}

func newFormatter(cfg *config.Config) (output.Formatter, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	opts := output.DefaultFormatterOptions()
	opts.Template = cfg.Output.Template
	opts.ShowTime = cfg.Output.ShowTime
	opts.ShowBar = runOpts.showBar || len(cfg.Bars) > 1
	return output.NewFormatter(format, opts)
}

func openSources(paths []string) ([]input.Source, error) {
	sources := make([]input.Source, 0, len(paths))
	for _, path := range paths {
		src, err := input.NewLineSource(path)
		if err != nil {
			return nil, err
		}
		src.SetLogger(logger)
		sources = append(sources, src)
	}
	return sources, nil
}
