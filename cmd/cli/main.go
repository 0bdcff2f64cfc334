// Command parascan scans a target URL for common web vulnerabilities,
// learning which probe to run against which kind of parameter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parascan/parascan/pkg/config"
	"github.com/parascan/parascan/pkg/defaults"
	"github.com/parascan/parascan/pkg/duration"
	"github.com/parascan/parascan/pkg/httpclient"
	"github.com/parascan/parascan/pkg/output"
	"github.com/parascan/parascan/pkg/scan"
	"github.com/parascan/parascan/pkg/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet(defaults.ToolName, flag.ExitOnError)

	target := flags.String("u", "", "Target URL")
	flags.StringVar(target, "target", "", "Target URL (alias)")
	configFile := flags.String("config", "", "YAML config file")
	policyFile := flags.String("policy", "", "Policy file path")
	findingsFile := flags.String("findings", "", "Findings output file (JSON lines)")
	concurrency := flags.Int("concurrency", 0, "Concurrent probe workers")
	flags.IntVar(concurrency, "c", 0, "Concurrent probe workers (alias)")
	timeout := flags.Duration("timeout", 0, "HTTP request timeout")
	epsilon := flags.Float64("epsilon", -1, "Exploration rate in [0,1]")
	alpha := flags.Float64("alpha", 0, "Learning rate in (0,1]")
	seed := flags.Int64("seed", 0, "Exploration RNG seed (0 = time-based)")
	rateLimit := flags.Float64("rate-limit", 0, "Max requests per second")
	flags.Float64Var(rateLimit, "rl", 0, "Max requests per second (alias)")
	noForms := flags.Bool("no-forms", false, "Skip GET-form inputs, probe query parameters only")
	userAgent := flags.String("user-agent", "", "Custom User-Agent")
	flags.StringVar(userAgent, "ua", "", "User-Agent (alias)")
	proxy := flags.String("proxy", "", "HTTP proxy URL")
	flags.StringVar(proxy, "x", "", "Proxy (alias)")
	skipVerify := flags.Bool("skip-verify", false, "Skip TLS verification")
	showPolicy := flags.Bool("show-policy", false, "Print learned estimates after the scan")
	metricsPort := flags.Int("metrics-port", 0, "Expose Prometheus metrics on this port")
	otelEndpoint := flags.String("otel-endpoint", "", "Export traces to this OTLP gRPC endpoint")
	otelInsecure := flags.Bool("otel-insecure", false, "Disable TLS for OTLP export")
	verbose := flags.Bool("verbose", false, "Verbose output")
	flags.BoolVar(verbose, "v", false, "Verbose (alias)")
	silent := flags.Bool("silent", false, "Silent mode")
	flags.BoolVar(silent, "s", false, "Silent mode (alias)")
	noColor := flags.Bool("no-color", false, "Disable colored output")
	flags.BoolVar(noColor, "nc", false, "No color (alias)")
	version := flags.Bool("version", false, "Print version and exit")

	flags.Parse(os.Args[1:])

	if *version {
		fmt.Printf("%s v%s\n", defaults.ToolName, defaults.Version)
		return 0
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// Flags override the config file.
	if *target != "" {
		cfg.Target = *target
	}
	if cfg.Target == "" && flags.NArg() > 0 {
		cfg.Target = flags.Arg(0)
	}
	if *policyFile != "" {
		cfg.PolicyFile = *policyFile
	}
	if *findingsFile != "" {
		cfg.FindingsFile = *findingsFile
	}
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}
	if *timeout > 0 {
		cfg.Timeout = config.Duration(*timeout)
	}
	if *epsilon >= 0 {
		cfg.Epsilon = *epsilon
	}
	if *alpha > 0 {
		cfg.Alpha = *alpha
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *rateLimit > 0 {
		cfg.RateLimit = *rateLimit
	}
	if *noForms {
		cfg.IncludeForms = false
	}
	if *userAgent != "" {
		cfg.UserAgent = *userAgent
	}
	if *proxy != "" {
		cfg.Proxy = *proxy
	}
	if *skipVerify {
		cfg.SkipVerify = true
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *noColor {
		cfg.NoColor = true
	}
	if *metricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = *metricsPort
	}
	if *otelEndpoint != "" {
		cfg.OTel.Enabled = true
		cfg.OTel.Endpoint = *otelEndpoint
		cfg.OTel.Insecure = *otelInsecure
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		flags.Usage()
		return 1
	}

	ui.SetSilent(*silent)
	ui.SetNoColor(cfg.NoColor || !ui.IsTerminal())

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ui.PrintBanner()
	ui.PrintConfig("Target", cfg.Target)
	ui.PrintConfig("Policy", cfg.PolicyFile)
	ui.PrintConfig("Concurrency", fmt.Sprintf("%d", cfg.Concurrency))
	ui.PrintConfig("Epsilon", fmt.Sprintf("%.2f", cfg.Epsilon))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := output.NewDispatcher()
	if cfg.Verbose {
		dispatcher.Register(output.NewLoggerHook(logger))
	}
	if cfg.FindingsFile != "" {
		w, err := output.NewJSONLWriter(cfg.FindingsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		dispatcher.Register(w)
	}
	if cfg.Metrics.Enabled {
		h, err := output.NewPrometheusHook(output.PrometheusOptions{
			Port: cfg.Metrics.Port,
			Path: cfg.Metrics.Path,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		dispatcher.Register(h)
	}
	if cfg.OTel.Enabled {
		h, err := output.NewOTelHook(output.OTelOptions{
			Endpoint: cfg.OTel.Endpoint,
			Insecure: cfg.OTel.Insecure,
		})
		if err != nil {
			logger.Warn("otel export unavailable", "error", err)
		} else {
			dispatcher.Register(h)
		}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), duration.ShutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			logger.Warn("output shutdown", "error", err)
		}
	}()

	scanCfg := scan.DefaultConfig()
	scanCfg.Timeout = cfg.Timeout.Std()
	scanCfg.UserAgent = cfg.UserAgent
	scanCfg.Concurrency = cfg.Concurrency
	scanCfg.Client = httpclient.New(httpclient.Config{
		Timeout:            cfg.Timeout.Std(),
		InsecureSkipVerify: cfg.SkipVerify,
		Proxy:              cfg.Proxy,
	})
	scanCfg.PolicyPath = cfg.PolicyFile
	scanCfg.Epsilon = cfg.Epsilon
	scanCfg.Alpha = cfg.Alpha
	scanCfg.Seed = cfg.Seed
	scanCfg.RequestsPerSecond = cfg.RateLimit
	scanCfg.Discount = cfg.Discount
	scanCfg.IncludeForms = cfg.IncludeForms
	scanCfg.Sink = ui.NewStreamSink()
	scanCfg.Logger = logger
	scanCfg.Dispatcher = dispatcher

	orch, err := scan.New(scanCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	start := time.Now()
	res, err := orch.Run(ctx, cfg.Target)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "scan cancelled before probing started")
			return 130
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ui.PrintFindings(res.Findings)
	ui.PrintSummary(ui.Summary{
		Target:    res.Target,
		Probes:    res.Probes,
		Findings:  len(res.Findings),
		Errors:    res.Errors,
		States:    res.States,
		Duration:  time.Since(start),
		Cancelled: res.Cancelled,
	})
	if *showPolicy {
		ui.PrintPolicy(orch.Table().Snapshot())
	}

	if res.Cancelled {
		return 130
	}
	if len(res.Findings) > 0 {
		return 2
	}
	return 0
}
