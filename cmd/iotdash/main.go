package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/iotdash/internal/bus"
	"github.com/smileynet/iotdash/internal/config"
	"github.com/smileynet/iotdash/internal/dashboard"
	"github.com/smileynet/iotdash/internal/logging"
	"github.com/smileynet/iotdash/internal/metrics"
	"github.com/smileynet/iotdash/internal/notify"
	"github.com/smileynet/iotdash/internal/summary"
	"github.com/smileynet/iotdash/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `help:"Read only this config file instead of the user and project layers." placeholder:"FILE" type:"path"`
	Proxy   string `help:"Proxy host label (overrides proxy.hostname)." placeholder:"NAME"`
	Host    string `help:"Page host the proxy domain is derived from (overrides location.host)." placeholder:"HOST"`
	Verbose bool   `help:"Also write logs to stderr (ignored by dashboard)." short:"v"`
}

// CLI is the top-level command structure for iotdash.
type CLI struct {
	Globals

	Version   kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard DashboardCmd     `cmd:"" help:"Open interactive summaries dashboard TUI."`
	Summaries SummariesCmd     `cmd:"" help:"Fetch the summary list once and print it."`
	Endpoint  EndpointCmd      `cmd:"" help:"Print the derived proxy endpoint."`
	Health    HealthCmd        `cmd:"" help:"Check the proxy health endpoint."`
}

// Exit codes.
const (
	exitSuccess = 0
	exitFetch   = 1
	exitSetup   = 2
	exitAborted = 130
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
		return exitAborted
	}
	var ne *tui.NotificationError
	var te *summary.TransportError
	if errors.As(err, &ne) || errors.As(err, &te) || errors.Is(err, summary.ErrInvalidShape) {
		return exitFetch
	}
	return exitSetup
}

// loadConfig loads path, or the user and project layers when path is empty,
// then applies env overrides.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadLayered(
			os.ExpandEnv("$HOME/.config/iotdash/config.yaml"),
			".iotdash/config.yaml",
		)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyGlobals layers CLI flags over cfg and validates the result.
func applyGlobals(cfg *config.Config, g *Globals) error {
	if g.Proxy != "" {
		cfg.Proxy.Hostname = g.Proxy
	}
	if g.Host != "" {
		cfg.Location.Host = g.Host
	}
	return cfg.Validate()
}

// app holds what every fetching command needs.
type app struct {
	cfg      *config.Config
	endpoint summary.Endpoint
	log      *slog.Logger
	closeLog io.Closer
}

func (a *app) Close() error { return a.closeLog.Close() }

// client builds the proxy client from config.
func (a *app) client() *summary.Client {
	return summary.NewClient(
		summary.WithTimeout(a.cfg.Proxy.Timeout),
		summary.WithClientLogger(a.log),
	)
}

// resolveEndpoint loads config, applies flags and derives the endpoint.
func resolveEndpoint(g *Globals) (*config.Config, summary.Endpoint, error) {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return nil, summary.Endpoint{}, err
	}
	if err := applyGlobals(cfg, g); err != nil {
		return nil, summary.Endpoint{}, err
	}
	host, err := cfg.ResolveHost()
	if err != nil {
		return nil, summary.Endpoint{}, err
	}
	return cfg, summary.NewEndpoint(cfg.Proxy.Scheme, cfg.Proxy.Hostname, host), nil
}

// setup resolves the endpoint and opens the logger. console receives a copy
// of the log when non-nil.
func setup(g *Globals, console io.Writer) (*app, error) {
	cfg, endpoint, err := resolveEndpoint(g)
	if err != nil {
		return nil, err
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(logging.Options{
		Level:   level,
		Console: console,
		File: &logging.RotatorConfig{
			Dir:           cfg.Log.Dir,
			MaxFiles:      cfg.Log.MaxFiles,
			MaxFileSizeMB: cfg.Log.MaxFileSizeMB,
		},
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Resolved proxy endpoint", "base", endpoint.Base(), "version", version)
	return &app{cfg: cfg, endpoint: endpoint, log: log, closeLog: closer}, nil
}

func consoleFor(g *Globals) io.Writer {
	if g.Verbose {
		return os.Stderr
	}
	return nil
}

// DashboardCmd opens the interactive dashboard.
type DashboardCmd struct {
	MetricsAddr string `help:"Serve Prometheus metrics on this address while the dashboard runs." placeholder:"ADDR"`
}

// Run builds real dependencies and launches the dashboard TUI.
func (d *DashboardCmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}

	a, err := setup(g, nil)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []summary.Option{summary.WithLogger(a.log)}
	if d.MetricsAddr != "" {
		exp := metrics.New(nil)
		opts = append(opts, summary.WithObserver(exp))
		go func() {
			if err := exp.Serve(ctx, d.MetricsAddr); err != nil {
				a.log.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	// The refresher runs on the program's event loop, after cache is set.
	var cache *summary.Cache
	m := dashboard.NewModel(
		dashboard.WithEndpoint(a.endpoint.Base()),
		dashboard.WithRefresher(func() { cache.Refresh() }),
	)
	p := tea.NewProgram(m, tea.WithAltScreen())

	events := bus.New()
	detach := dashboard.Attach(events, p)
	defer detach()

	cache = summary.New(a.endpoint, append(opts,
		summary.WithFetcher(a.client()),
		summary.WithPublisher(events),
		summary.WithNotifier(notify.Multi(dashboard.Toasts(p), notify.NewLogNotifier(a.log))),
	)...)
	defer cache.Close()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// SummariesCmd fetches the list once.
type SummariesCmd struct {
	JSON  bool `help:"Print the list as JSON." xor:"format"`
	Plain bool `help:"Print tab-separated rows and skip the spinner." xor:"format"`
}

func (s *SummariesCmd) format() tui.Format {
	switch {
	case s.JSON:
		return tui.FormatJSON
	case s.Plain:
		return tui.FormatPlain
	default:
		return tui.FormatAuto
	}
}

// Run executes the summaries command.
func (s *SummariesCmd) Run(g *Globals) error {
	a, err := setup(g, consoleFor(g))
	if err != nil {
		return fmt.Errorf("summaries: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	display := tui.NewDisplay(tui.DisplayOptions{
		Writer:     os.Stderr,
		ForcePlain: s.Plain,
		URL:        a.endpoint.SummariesURL(),
	})
	return runSummaries(ctx, a, a.client(), display, os.Stdout, s.format())
}

// runSummaries builds a cache over fetcher, waits for its first outcome and
// prints the list.
func runSummaries(ctx context.Context, a *app, fetcher summary.Fetcher, display tui.Display, out io.Writer, format tui.Format) error {
	bridge := tui.NewBridge()
	events := bus.New()
	events.Subscribe(summary.EventUpdated, bridge.Updated)

	cache := summary.New(a.endpoint,
		summary.WithFetcher(fetcher),
		summary.WithPublisher(events),
		summary.WithNotifier(notify.Multi(bridge, notify.NewLogNotifier(a.log))),
		summary.WithLogger(a.log),
	)
	defer cache.Close()

	list, err := display.Wait(ctx, bridge.Events())
	if err != nil {
		return fmt.Errorf("summaries: %w", err)
	}
	return tui.Print(tui.PrintOptions{Writer: out, Format: format}, list)
}

// EndpointCmd prints the derived endpoint without contacting the proxy.
type EndpointCmd struct{}

// Run executes the endpoint command.
func (e *EndpointCmd) Run(g *Globals) error {
	_, endpoint, err := resolveEndpoint(g)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	return printEndpoint(os.Stdout, endpoint)
}

func printEndpoint(w io.Writer, e summary.Endpoint) error {
	_, err := fmt.Fprintf(w, "host:      %s\nbase:      %s\nsummaries: %s\nhealth:    %s\n",
		e.Host(), e.Base(), e.SummariesURL(), e.HealthURL())
	return err
}

// HealthCmd checks that the proxy answers.
type HealthCmd struct{}

// healthChecker abstracts summary.Client.Health for testing.
type healthChecker interface {
	Health(ctx context.Context, url string) error
}

// Run executes the health command.
func (h *HealthCmd) Run(g *Globals) error {
	a, err := setup(g, consoleFor(g))
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runHealth(ctx, a.client(), a.endpoint.HealthURL(), os.Stdout)
}

func runHealth(ctx context.Context, c healthChecker, url string, w io.Writer) error {
	if err := c.Health(ctx, url); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	_, err := fmt.Fprintf(w, "ok %s\n", url)
	return err
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("iotdash"),
		kong.Description("Browse the IoT dashboard summaries served by the dashboard proxy."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
