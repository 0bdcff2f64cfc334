package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/output"
	"github.com/parascan/parascan/pkg/policy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// vulnServer is vulnerable to error-based SQL injection on any
// parameter whose value gains a quote.
func vulnServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, vs := range r.URL.Query() {
			for _, v := range vs {
				if strings.ContainsAny(v, `'"`) {
					fmt.Fprint(w, "You have an error in your SQL syntax")
					return
				}
			}
		}
		fmt.Fprint(w, "<html>ok</html>")
	}))
}

func cleanServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>ok</html>")
	}))
}

func testConfig(srv *httptest.Server, policyPath string) *Config {
	cfg := DefaultConfig()
	cfg.Client = srv.Client()
	cfg.Concurrency = 2
	cfg.Epsilon = 0 // deterministic greedy selection
	cfg.Seed = 1
	cfg.PolicyPath = policyPath
	cfg.IncludeForms = false
	cfg.Logger = testLogger()
	return cfg
}

func TestRun_VulnerableTargetLearnsPositiveEstimate(t *testing.T) {
	srv := vulnServer()
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "policy.json")
	orch, err := New(testConfig(srv, path))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := orch.Run(context.Background(), srv.URL+"/?id=1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Probes != 1 {
		t.Errorf("Expected 1 probe, got %d", res.Probes)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(res.Findings))
	}
	f := res.Findings[0]
	if f.ScanID != res.ScanID {
		t.Errorf("Finding scan ID %q != run scan ID %q", f.ScanID, res.ScanID)
	}
	if f.Action != "run_sqli" {
		t.Errorf("Expected run_sqli attribution, got %q", f.Action)
	}

	// Greedy selection on an empty table tie-breaks to the SQLi probe,
	// and the finding must push its estimate up.
	e, ok := orch.Table().Get("idlike:numeric", policy.ActionSQLi)
	if !ok {
		t.Fatal("No entry learned for the probed state")
	}
	if e.Estimate <= 0 {
		t.Errorf("Expected positive estimate after finding, got %v", e.Estimate)
	}
	if e.Visits != 1 {
		t.Errorf("Expected 1 visit, got %d", e.Visits)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Policy not persisted: %v", err)
	}
}

func TestRun_CleanTargetLearnsNegativeEstimate(t *testing.T) {
	srv := cleanServer()
	defer srv.Close()

	orch, err := New(testConfig(srv, ""))
	if err != nil {
		t.Fatal(err)
	}

	res, err := orch.Run(context.Background(), srv.URL+"/?id=1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Findings) != 0 {
		t.Errorf("Expected no findings, got %+v", res.Findings)
	}

	e, ok := orch.Table().Get("idlike:numeric", policy.ActionSQLi)
	if !ok {
		t.Fatal("Clean miss must still be learned")
	}
	if e.Estimate >= 0 {
		t.Errorf("Expected negative estimate after clean miss, got %v", e.Estimate)
	}
}

func TestRun_ProbeErrorLearnsWorseThanCleanMiss(t *testing.T) {
	srv := cleanServer()
	srv.Close() // every probe fails

	cfg := testConfig(srv, "")
	cfg.Client = nil
	orch, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	res, err := orch.Run(context.Background(), srv.URL+"/?id=1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Errors != 1 {
		t.Errorf("Expected 1 probe error, got %d", res.Errors)
	}

	e, ok := orch.Table().Get("idlike:numeric", policy.ActionSQLi)
	if !ok {
		t.Fatal("Probe error must still be learned")
	}
	rewards := policy.DefaultRewards()
	if e.Estimate >= cfg.Alpha*rewards.CleanMiss {
		t.Errorf("Error estimate %v not below clean-miss scale", e.Estimate)
	}
}

func TestRun_CancelledContextPreservesPartialResult(t *testing.T) {
	srv := vulnServer()
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "policy.json")
	orch, err := New(testConfig(srv, path))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := orch.Run(ctx, srv.URL+"/?id=1&user_id=2")
	if err != nil {
		t.Fatalf("Cancellation must not be a hard failure, got %v", err)
	}
	if !res.Cancelled {
		t.Error("Expected Cancelled result")
	}
	if res.Probes != 0 {
		t.Errorf("Probes should be skipped after cancel, got %d", res.Probes)
	}

	// The policy still gets persisted on the way out.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Policy not persisted after cancel: %v", err)
	}
}

// recordingSink collects findings emitted by the orchestrator workers.
type recordingSink struct {
	mu       sync.Mutex
	findings []finding.Finding
}

func (s *recordingSink) Emit(f finding.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.findings)
}

func TestRun_MidScanCancelFinishesInFlightProbe(t *testing.T) {
	// The first request blocks until the scan context is cancelled, so
	// exactly one probe is in flight at cancellation time. It must run
	// to completion and learn its real outcome; the queued parameter
	// must be skipped without leaving a trace in the table.
	var once sync.Once
	started := make(chan struct{})
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			close(started)
			<-gate
		})
		for _, vs := range r.URL.Query() {
			for _, v := range vs {
				if strings.ContainsAny(v, `'"`) {
					fmt.Fprint(w, "You have an error in your SQL syntax")
					return
				}
			}
		}
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "policy.json")
	cfg := testConfig(srv, path)
	cfg.Concurrency = 1
	sink := &recordingSink{}
	cfg.Sink = sink
	orch, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var res *Result
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, runErr = orch.Run(ctx, srv.URL+"/?id=1&q=x")
	}()

	<-started
	cancel()
	close(gate)
	<-done

	if runErr != nil {
		t.Fatalf("Mid-scan cancel must not be a hard failure, got %v", runErr)
	}
	if !res.Cancelled {
		t.Error("Expected Cancelled result")
	}
	if res.Probes != 1 {
		t.Fatalf("Expected exactly the in-flight probe to finish, got %d", res.Probes)
	}
	if res.Errors != 0 {
		t.Errorf("Cancellation recorded as a probe error: %d", res.Errors)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("In-flight probe's finding lost, got %d findings", len(res.Findings))
	}
	if got := sink.len(); got != 1 {
		t.Errorf("Sink saw %d findings, want 1", got)
	}

	// The table holds the in-flight probe's real outcome and nothing
	// for the skipped parameter.
	if orch.Table().Len() != 1 {
		t.Fatalf("Expected 1 learned state, got %d", orch.Table().Len())
	}
	e, ok := orch.Table().Get("idlike:numeric", policy.ActionSQLi)
	if !ok {
		t.Fatal("In-flight probe's state not learned")
	}
	if e.Visits != 1 {
		t.Errorf("Expected 1 visit, got %d", e.Visits)
	}
	rewards := policy.DefaultRewards()
	want := cfg.Alpha * rewards.Finding
	if diff := e.Estimate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Estimate %v, want %v (the finding's reward, not a cancellation artifact)", e.Estimate, want)
	}

	// The persisted table matches what was processed.
	loaded, err := policy.Load(path)
	if err != nil {
		t.Fatalf("Persisted policy unreadable: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("Persisted %d states, want 1", loaded.Len())
	}
}

func TestNew_CorruptPolicyStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	if err := os.WriteFile(path, []byte("{torn write"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := cleanServer()
	defer srv.Close()

	orch, err := New(testConfig(srv, path))
	if err != nil {
		t.Fatalf("Corrupt policy must not abort startup: %v", err)
	}
	if orch.Table().Len() != 0 {
		t.Errorf("Expected empty table, got %d entries", orch.Table().Len())
	}

	// And the scan still runs and overwrites the corrupt file.
	if _, err := orch.Run(context.Background(), srv.URL+"/?id=1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := policy.Load(path); err != nil {
		t.Errorf("Persisted policy still unreadable: %v", err)
	}
}

func TestRun_LearningPersistsAcrossOrchestrators(t *testing.T) {
	srv := vulnServer()
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "policy.json")

	first, err := New(testConfig(srv, path))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Run(context.Background(), srv.URL+"/?id=1"); err != nil {
		t.Fatal(err)
	}
	want, ok := first.Table().Get("idlike:numeric", policy.ActionSQLi)
	if !ok {
		t.Fatal("First run learned nothing")
	}

	second, err := New(testConfig(srv, path))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := second.Table().Get("idlike:numeric", policy.ActionSQLi)
	if !ok {
		t.Fatal("Second orchestrator did not load the learned policy")
	}
	if got.Estimate != want.Estimate || got.Visits != want.Visits {
		t.Errorf("Loaded %+v, want %+v", got, want)
	}
}

func TestRun_DispatchesEvents(t *testing.T) {
	srv := vulnServer()
	defer srv.Close()

	d := output.NewDispatcher()
	rec := &recordingHook{}
	d.Register(rec)

	cfg := testConfig(srv, "")
	cfg.Dispatcher = d
	orch, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := orch.Run(context.Background(), srv.URL+"/?id=1"); err != nil {
		t.Fatal(err)
	}

	var start, probe, found, complete int
	for _, et := range rec.types {
		switch et {
		case output.EventTypeStart:
			start++
		case output.EventTypeProbe:
			probe++
		case output.EventTypeFinding:
			found++
		case output.EventTypeComplete:
			complete++
		}
	}
	if start != 1 || complete != 1 {
		t.Errorf("Expected one start and one complete, got %d/%d", start, complete)
	}
	if probe != 1 {
		t.Errorf("Expected 1 probe event, got %d", probe)
	}
	if found != 1 {
		t.Errorf("Expected 1 finding event, got %d", found)
	}
}

type recordingHook struct {
	types []output.EventType
}

func (h *recordingHook) OnEvent(_ context.Context, e output.Event) error {
	h.types = append(h.types, e.Type())
	return nil
}

func (h *recordingHook) EventTypes() []output.EventType { return nil }

func (h *recordingHook) Close(context.Context) error { return nil }
