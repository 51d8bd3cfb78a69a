package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/statusbar/internal/adapter/input"
	"github.com/jmylchreest/statusbar/internal/audio"
	"github.com/jmylchreest/statusbar/internal/config"
	"github.com/jmylchreest/statusbar/internal/dbus"
	"github.com/jmylchreest/statusbar/internal/display"
	"github.com/jmylchreest/statusbar/internal/loop"
	"github.com/jmylchreest/statusbar/internal/severity"
	"github.com/jmylchreest/statusbar/internal/statusbar"
)

// ErrVocabularyChanged is returned by Apply when the type vocabulary of a
// running daemon would change. Bars classify with the table they were
// built with, so new names need a restart.
var ErrVocabularyChanged = errors.New("vocabulary changes require a restart")

// Options configures a Daemon.
type Options struct {
	Config *config.Config
	Loop   statusbar.Loop // Nil creates and owns a real event loop
	Sinks  []statusbar.Surface
	// Sounder plays chimes. Nil builds an audio manager from the config.
	Sounder audio.Sounder
	Logger  *slog.Logger
}

// Daemon owns the bars of one process and everything feeding or watching
// them.
type Daemon struct {
	logger   *slog.Logger
	loop     statusbar.Loop
	ownLoop  *loop.Loop
	bars     *statusbar.Registry
	display  *display.Manager
	router   *input.Router
	audio    *audio.Manager // Nil when a Sounder was supplied
	notifier *InternalNotifier
	table    *severity.Table

	mu  sync.Mutex
	cfg *config.Config
}

// New builds the daemon and registers the configured bars.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	table, err := opts.Config.Table()
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		logger: opts.Logger,
		loop:   opts.Loop,
		bars:   statusbar.NewRegistry(),
		table:  table,
	}
	if d.loop == nil {
		d.ownLoop = loop.New(opts.Logger)
		d.ownLoop.Start()
		d.loop = d.ownLoop
	}

	d.display = display.NewManager(opts.Logger, opts.Sinks...)
	d.router = input.NewRouter(d.bars, opts.Logger)
	d.notifier = NewInternalNotifier(d.router, opts.Logger)

	sounder := opts.Sounder
	if sounder == nil {
		d.audio = audio.NewManager(audioSettings(opts.Config), opts.Logger)
		sounder = d.audio
	}
	d.display.AddSink(audio.NewChime(reportingSounder{
		Sounder: sounder,
		onError: func(err error) {
			// The chime runs on a bar's loop; queueing from there would block it.
			go d.notifier.NotifyAudioError(context.Background(), err)
		},
	}, opts.Logger))

	if err := d.Apply(context.Background(), opts.Config); err != nil {
		_ = d.Close(context.Background())
		return nil, err
	}
	return d, nil
}

// Bars returns the bar registry.
func (d *Daemon) Bars() *statusbar.Registry {
	return d.bars
}

// Router returns the input router.
func (d *Daemon) Router() *input.Router {
	return d.router
}

// Notifier returns the internal notifier.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// Config returns the configuration last applied.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Apply registers the bars cfg names and reconfigures the existing ones.
// An invalid cfg changes nothing. Bars dropped from cfg keep running until
// the daemon closes.
func (d *Daemon) Apply(ctx context.Context, cfg *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg != nil && !maps.Equal(d.cfg.Vocabulary, cfg.Vocabulary) {
		return ErrVocabularyChanged
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var errs []error
	timeouts := cfg.TimeoutMap()
	for _, name := range cfg.BarNames() {
		bc := cfg.Bars[name]
		bar, created, err := d.bars.Register(name, func(name string) (*statusbar.StatusBar, error) {
			return statusbar.New(d.loop, statusbar.Options{
				Name:         name,
				Events:       bc.EventList(),
				ReadyContent: bc.ReadyContent,
				Table:        d.table,
				Timeouts:     timeouts,
				Surface:      d.display,
				Logger:       d.logger,
			})
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if created {
			d.logger.Info("status bar registered", "bar", name, "events", bc.EventList())
			continue
		}

		if err := bar.SetEvents(ctx, bc.EventList()); err != nil {
			errs = append(errs, fmt.Errorf("bar %q: %w", name, err))
		}
		if err := bar.SetReadyContent(ctx, bc.ReadyContent); err != nil {
			errs = append(errs, fmt.Errorf("bar %q: %w", name, err))
		}
		if err := bar.SetTimeouts(ctx, timeouts); err != nil {
			errs = append(errs, fmt.Errorf("bar %q: %w", name, err))
		}
	}

	for _, name := range d.bars.Names() {
		if _, ok := cfg.Bars[name]; !ok {
			d.logger.Warn("bar removed from config keeps running until restart", "bar", name)
		}
	}

	if d.audio != nil {
		d.audio.Update(audioSettings(cfg))
	}
	d.notifier.SetEnabled(cfg.Notices.Enabled)
	d.notifier.SetMinInterval(cfg.Notices.MinInterval.Duration())
	d.notifier.SetBar(cfg.Notices.Bar)

	// The bars now run with cfg even if some updates failed.
	d.cfg = cfg
	return errors.Join(errs...)
}

// Reload applies cfg and reports the outcome on the bars.
func (d *Daemon) Reload(ctx context.Context, cfg *config.Config) error {
	if err := d.Apply(ctx, cfg); err != nil {
		d.logger.Warn("failed to apply reloaded config", "error", err)
		d.notifier.NotifyConfigError(ctx, err)
		return err
	}
	d.notifier.NotifyConfigReloaded(ctx)
	return nil
}

// Dismiss dismisses the message displayed on the named bar.
func (d *Daemon) Dismiss(ctx context.Context, bar, source string) error {
	return d.router.Handle(ctx, input.Event{
		Action: input.ActionDismiss,
		Bar:    bar,
		Source: source,
	})
}

// DBusMapping returns the urgency mapping of the current config.
func (d *Daemon) DBusMapping() dbus.Mapping {
	cfg := d.Config()
	return dbus.Mapping{
		Low:      cfg.DBus.Low,
		Normal:   cfg.DBus.Normal,
		Critical: cfg.DBus.Critical,
		Bar:      cfg.DBus.Bar,
	}
}

// Run feeds every source into the router until they all return or ctx is
// cancelled. Sources run independently: one failing leaves the others
// running. The first failure is returned; every failure is logged.
func (d *Daemon) Run(ctx context.Context, sources ...input.Source) error {
	var g errgroup.Group
	for _, src := range sources {
		g.Go(func() error {
			d.logger.Debug("input source started", "source", src.Name())
			defer d.logger.Debug("input source finished", "source", src.Name())
			if err := src.Run(ctx, d.router); err != nil && ctx.Err() == nil {
				d.logger.Error("input source failed", "source", src.Name(), "error", err)
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close closes every bar, settling outstanding messages, then releases
// audio and the owned loop.
func (d *Daemon) Close(ctx context.Context) error {
	for _, bar := range d.bars.Bars() {
		if snap, err := bar.Snapshot(ctx); err == nil && !snap.Closed {
			d.logger.Debug("closing bar",
				"bar", bar.Name(),
				"level", snap.Level,
				"queued", snap.Queued.Total(),
			)
		}
	}
	d.logger.Debug("closing daemon", "outstanding", d.router.Outstanding())

	err := d.bars.Close(ctx)
	if d.audio != nil {
		d.audio.Close()
	}
	if d.ownLoop != nil {
		d.ownLoop.Stop()
	}
	return err
}

func audioSettings(cfg *config.Config) audio.Settings {
	return audio.Settings{
		Enabled: cfg.Audio.Enabled,
		Volume:  cfg.Audio.Volume,
		Sounds:  cfg.SoundMap(),
	}
}

// reportingSounder forwards playback errors to onError.
type reportingSounder struct {
	audio.Sounder
	onError func(error)
}

func (s reportingSounder) PlayFor(sev severity.Severity) error {
	err := s.Sounder.PlayFor(sev)
	if err != nil && s.onError != nil {
		s.onError(err)
	}
	return err
}
