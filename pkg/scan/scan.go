// Package scan runs the adaptive probe loop against a target: discover
// parameters, pick a probe per parameter from the learned policy, run
// it, score the outcome, and fold the reward back into the policy.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/parascan/parascan/pkg/attackconfig"
	"github.com/parascan/parascan/pkg/defaults"
	"github.com/parascan/parascan/pkg/duration"
	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/output"
	"github.com/parascan/parascan/pkg/param"
	"github.com/parascan/parascan/pkg/policy"
	"github.com/parascan/parascan/pkg/probe"
	"github.com/parascan/parascan/pkg/workerpool"
)

// Config controls a scan run.
type Config struct {
	attackconfig.Base

	// PolicyPath is the JSON file the policy is loaded from and saved
	// to. Empty disables persistence.
	PolicyPath string

	// Epsilon is the exploration rate in [0, 1].
	Epsilon float64

	// Alpha is the learning rate in (0, 1].
	Alpha float64

	// Discount is the future-reward discount factor in (0, 1]. The
	// current update rule is stateless and does not consume it; it is
	// carried for a sequential formulation of the policy.
	Discount float64

	// Seed seeds exploration; 0 means time-based.
	Seed int64

	// Rewards scores probe outcomes.
	Rewards policy.RewardConfig

	// ProbeTimeout bounds each probe attempt.
	ProbeTimeout time.Duration

	// RequestsPerSecond paces probing; 0 uses the default.
	RequestsPerSecond float64

	// FlushEvery saves the policy after this many updates; 0 uses the
	// default.
	FlushEvery int

	// IncludeForms also probes GET-form inputs found on the page.
	IncludeForms bool

	// Sink receives findings as they are confirmed. Emit is invoked
	// from worker goroutines, so implementations must be concurrency
	// safe. Nil disables streaming; findings still accumulate on the
	// Result. The caller owns the sink's lifecycle.
	Sink finding.Sink

	// Logger receives scan progress. Nil uses slog.Default.
	Logger *slog.Logger

	// Dispatcher receives scan events. Nil disables event output.
	Dispatcher *output.Dispatcher
}

// DefaultConfig returns a scan configuration with library defaults.
func DefaultConfig() *Config {
	return &Config{
		Base:              attackconfig.DefaultBase(),
		Epsilon:           defaults.Epsilon,
		Alpha:             defaults.LearningRate,
		Discount:          defaults.Discount,
		Rewards:           policy.DefaultRewards(),
		ProbeTimeout:      duration.ProbeTimeout,
		RequestsPerSecond: defaults.RequestsPerSecond,
		FlushEvery:        defaults.FlushEvery,
		IncludeForms:      true,
	}
}

// Result summarizes a finished (or cancelled) scan.
type Result struct {
	ScanID    string
	Target    string
	Probes    int
	Errors    int
	Findings  []finding.Finding
	States    int
	Duration  time.Duration
	Cancelled bool
}

// Orchestrator owns one policy table and runs scans against it. The
// table persists across Run calls, so repeated scans keep learning.
type Orchestrator struct {
	cfg      *Config
	table    *policy.Table
	selector *policy.Selector
	registry *probe.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	probes  int
	errors  int
	found   []finding.Finding
	pending int
}

// New creates an orchestrator, loading any existing policy from
// cfg.PolicyPath. A corrupt policy file is logged and replaced with an
// empty table rather than aborting the scan.
func New(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Validate()
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = defaults.LearningRate
	}
	if cfg.Discount <= 0 || cfg.Discount > 1 {
		cfg.Discount = defaults.Discount
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = duration.ProbeTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = defaults.FlushEvery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	table := policy.NewTable()
	if cfg.PolicyPath != "" {
		loaded, err := policy.Load(cfg.PolicyPath)
		switch {
		case errors.Is(err, policy.ErrParse):
			logger.Warn("policy file unreadable, starting fresh",
				"path", cfg.PolicyPath, "error", err)
		case err != nil:
			return nil, fmt.Errorf("load policy: %w", err)
		}
		if loaded != nil {
			table = loaded
		}
	}

	o := &Orchestrator{
		cfg:      cfg,
		table:    table,
		selector: policy.NewSelector(cfg.Epsilon, cfg.Seed),
		registry: defaultRegistry(cfg),
		logger:   logger,
	}
	return o, nil
}

// Table exposes the policy table, mainly for inspection and tests.
func (o *Orchestrator) Table() *policy.Table { return o.table }

// Registry exposes the probe registry so callers can swap probes.
func (o *Orchestrator) Registry() *probe.Registry { return o.registry }

// defaultRegistry wires the built-in probes to policy actions.
func defaultRegistry(cfg *Config) *probe.Registry {
	base := cfg.Base

	r := probe.NewRegistry()
	r.Register(policy.ActionSQLi, probe.NewFunc("sqli",
		sqliProber(base).TestParameter))
	r.Register(policy.ActionXSS, probe.NewFunc("xss",
		xssProber(base).TestParameter))
	r.Register(policy.ActionCSRF, probe.NewFunc("csrf",
		csrfProber(base).TestPage))
	r.Register(policy.ActionNoOp, probe.NoOp{})
	return r
}

// Run scans the target once. Cancellation via ctx stops scheduling new
// probes, waits for in-flight probes, persists what was learned, and
// returns the partial result with Cancelled set.
func (o *Orchestrator) Run(ctx context.Context, target string) (*Result, error) {
	start := time.Now()
	scanID := uuid.NewString()

	discoverCfg := param.DefaultConfig()
	discoverCfg.Base = o.cfg.Base
	discoverCfg.IncludeForms = o.cfg.IncludeForms
	observations, err := param.NewDiscoverer(discoverCfg).Discover(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("discover parameters: %w", err)
	}
	if len(observations) == 0 {
		o.logger.Info("no parameters discovered", "target", target)
	}

	o.dispatch(ctx, &output.StartEvent{
		BaseEvent:   output.BaseEvent{Time: time.Now().UTC(), ScanID: scanID},
		Target:      target,
		Parameters:  len(observations),
		Concurrency: o.cfg.Concurrency,
		Epsilon:     o.cfg.Epsilon,
	})

	o.mu.Lock()
	o.probes, o.errors, o.pending = 0, 0, 0
	o.found = nil
	o.mu.Unlock()

	limiter := rate.NewLimiter(rate.Limit(o.cfg.RequestsPerSecond), defaults.RequestBurst)
	pool := workerpool.New(o.cfg.Concurrency)
	for _, obs := range observations {
		obs := obs
		pool.Submit(func() {
			o.probeOne(ctx, scanID, target, obs, limiter)
		})
	}
	pool.Close()

	cancelled := ctx.Err() != nil

	if err := o.savePolicy(); err != nil {
		// Persistence failure degrades future runs but this run's
		// findings still stand.
		o.logger.Warn("policy save failed", "path", o.cfg.PolicyPath, "error", err)
	}

	o.mu.Lock()
	res := &Result{
		ScanID:    scanID,
		Target:    target,
		Probes:    o.probes,
		Errors:    o.errors,
		Findings:  append([]finding.Finding(nil), o.found...),
		States:    o.table.Len(),
		Duration:  time.Since(start),
		Cancelled: cancelled,
	}
	o.mu.Unlock()

	o.dispatch(ctx, &output.CompleteEvent{
		BaseEvent: output.BaseEvent{Time: time.Now().UTC(), ScanID: scanID},
		Target:    target,
		Probes:    res.Probes,
		Findings:  len(res.Findings),
		Errors:    res.Errors,
		Duration:  res.Duration,
		Cancelled: cancelled,
	})

	return res, nil
}

// probeOne runs the full decide-probe-learn cycle for one parameter.
func (o *Orchestrator) probeOne(ctx context.Context, scanID, target string, obs param.Observation, limiter *rate.Limiter) {
	if ctx.Err() != nil {
		return
	}
	if err := limiter.Wait(ctx); err != nil {
		return
	}

	state := policy.Encode(obs)
	action := o.selector.Select(state, o.table)

	p := o.registry.Get(action)
	if p == nil {
		p = probe.NoOp{}
	}

	// The probe runs on its own deadline even after scan cancellation:
	// an in-flight probe finishes and its real outcome is learned, so no
	// cancellation artifact is recorded as a transport failure.
	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.ProbeTimeout)
	probeStart := time.Now()
	outcome := p.Run(probeCtx, target, obs)
	cancel()
	latency := time.Since(probeStart)

	reward := o.cfg.Rewards.Evaluate(outcome.Found, outcome.Err)
	o.table.Update(state, action, reward, o.cfg.Alpha)

	details := make([]finding.Finding, len(outcome.Details))
	for i, f := range outcome.Details {
		f.ScanID = scanID
		f.Action = action.String()
		details[i] = f
	}

	o.mu.Lock()
	o.probes++
	o.pending++
	if outcome.Err != nil {
		o.errors++
	}
	o.found = append(o.found, details...)
	flush := o.pending >= o.cfg.FlushEvery
	if flush {
		o.pending = 0
	}
	o.mu.Unlock()

	if o.cfg.Sink != nil {
		for _, f := range details {
			if err := o.cfg.Sink.Emit(f); err != nil {
				o.logger.Warn("finding sink emit failed", "error", err)
			}
		}
	}

	errStr := ""
	if outcome.Err != nil {
		errStr = outcome.Err.Error()
	}
	o.dispatch(ctx, &output.ProbeEvent{
		BaseEvent: output.BaseEvent{Time: time.Now().UTC(), ScanID: scanID},
		Target:    target,
		Parameter: obs.Name,
		State:     string(state),
		Action:    action.String(),
		Found:     outcome.Found,
		Error:     errStr,
		Reward:    reward,
		Latency:   latency,
	})
	for _, f := range details {
		o.dispatch(ctx, &output.FindingEvent{
			BaseEvent: output.BaseEvent{Time: time.Now().UTC(), ScanID: scanID},
			Finding:   f,
		})
	}

	if flush {
		if err := o.savePolicy(); err != nil {
			o.logger.Warn("incremental policy save failed",
				"path", o.cfg.PolicyPath, "error", err)
		}
	}
}

func (o *Orchestrator) savePolicy() error {
	if o.cfg.PolicyPath == "" {
		return nil
	}
	return policy.Save(o.table, o.cfg.PolicyPath)
}

func (o *Orchestrator) dispatch(ctx context.Context, e output.Event) {
	if o.cfg.Dispatcher == nil {
		return
	}
	// Hooks must keep receiving after cancellation so the complete
	// event still goes out.
	if err := o.cfg.Dispatcher.Dispatch(context.WithoutCancel(ctx), e); err != nil {
		o.logger.Debug("event dispatch error", "error", err)
	}
}
