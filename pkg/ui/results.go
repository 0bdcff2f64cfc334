package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/policy"
)

// FormatFinding renders one finding as a nuclei-style line:
// [severity] [type] parameter [action] url
func FormatFinding(f finding.Finding) string {
	var parts []string
	parts = append(parts, BracketStyle.Render("[")+
		SeverityStyle(string(f.Severity)).Render(string(f.Severity))+
		BracketStyle.Render("]"))
	parts = append(parts, BracketStyle.Render("[")+
		ActionStyle.Render(f.Type)+
		BracketStyle.Render("]"))
	parts = append(parts, StatValueStyle.Render(f.Parameter))
	if f.Action != "" {
		parts = append(parts, BracketStyle.Render("[")+
			StatLabelStyle.Render(f.Action)+
			BracketStyle.Render("]"))
	}
	parts = append(parts, URLStyle.Render(f.URL))
	return strings.Join(parts, " ")
}

// PrintFindings writes the end-of-scan recap to stdout, most severe
// first, with evidence snippets. Suppressed in silent mode, where the
// streaming sink has already printed each finding.
func PrintFindings(findings []finding.Finding) {
	if IsSilent() || len(findings) == 0 {
		return
	}
	sorted := append([]finding.Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Score() > sorted[j].Severity.Score()
	})

	fmt.Println(SectionStyle.Render("Findings"))
	for _, f := range sorted {
		fmt.Println("  " + FormatFinding(f))
		if f.Evidence != "" {
			fmt.Println("      " + HelpStyle.Render(truncate(f.Evidence, 100)))
		}
	}
}

// Summary holds the numbers shown at the end of a scan.
type Summary struct {
	Target    string
	Probes    int
	Findings  int
	Errors    int
	States    int
	Duration  time.Duration
	Cancelled bool
}

// PrintSummary writes the end-of-scan summary to stderr.
func PrintSummary(s Summary) {
	if IsSilent() {
		return
	}
	w := os.Stderr
	fmt.Fprintln(w, SectionStyle.Render("Summary"))
	fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("Target:"), ConfigValueStyle.Render(s.Target))
	fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("Probes:"), StatValueStyle.Render(fmt.Sprintf("%d", s.Probes)))

	findingsStyle := CleanStyle
	if s.Findings > 0 {
		findingsStyle = FoundStyle
	}
	fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("Findings:"), findingsStyle.Render(fmt.Sprintf("%d", s.Findings)))
	if s.Errors > 0 {
		fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("Errors:"), ErrorStyle.Render(fmt.Sprintf("%d", s.Errors)))
	}
	fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("States:"), StatValueStyle.Render(fmt.Sprintf("%d", s.States)))
	fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("Duration:"), StatValueStyle.Render(s.Duration.Round(time.Millisecond).String()))
	if s.Cancelled {
		fmt.Fprintln(w, "  "+ErrorStyle.Render("scan cancelled, partial results"))
	}
}

// PrintPolicy writes the learned estimates to stderr, one line per
// state sorted by state key, actions in declaration order.
func PrintPolicy(snapshot map[policy.State]map[policy.Action]policy.QEntry) {
	if IsSilent() || len(snapshot) == 0 {
		return
	}
	states := make([]string, 0, len(snapshot))
	for s := range snapshot {
		states = append(states, string(s))
	}
	sort.Strings(states)

	fmt.Fprintln(os.Stderr, SectionStyle.Render("Learned policy"))
	for _, s := range states {
		var cells []string
		for _, a := range policy.Actions() {
			e, ok := snapshot[policy.State(s)][a]
			if !ok {
				continue
			}
			cells = append(cells, fmt.Sprintf("%s=%.3f (%d)", a, e.Estimate, e.Visits))
		}
		fmt.Fprintf(os.Stderr, "  %s %s\n",
			ConfigLabelStyle.Render(s),
			StatLabelStyle.Render(strings.Join(cells, "  ")))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
