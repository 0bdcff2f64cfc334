package output

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/jsonutil"
)

func TestJSONLWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.jsonl")
	w, err := NewJSONLWriter(path)
	if err != nil {
		t.Fatalf("NewJSONLWriter failed: %v", err)
	}

	for i, typ := range []string{"sql-injection (mysql)", "reflected-xss"} {
		err := w.OnEvent(context.Background(), &FindingEvent{
			BaseEvent: BaseEvent{Time: time.Now(), ScanID: "s1"},
			Finding:   finding.Finding{Type: typ, Parameter: "id", Severity: finding.High},
		})
		if err != nil {
			t.Fatalf("OnEvent %d failed: %v", i, err)
		}
	}
	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var got finding.Finding
		if err := jsonutil.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Errorf("Line %d is not valid JSON: %v", lines, err)
		}
		if got.Parameter != "id" {
			t.Errorf("Line %d: expected parameter id, got %q", lines, got.Parameter)
		}
	}
	if lines != 2 {
		t.Errorf("Expected 2 lines, got %d", lines)
	}
}

func TestJSONLWriter_IgnoresOtherEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.jsonl")
	w, err := NewJSONLWriter(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.OnEvent(context.Background(), &ProbeEvent{}); err != nil {
		t.Fatalf("OnEvent failed: %v", err)
	}
	if err := w.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("Non-finding events must not be written, got %q", data)
	}
}

func TestJSONLWriter_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.jsonl")

	for run := 0; run < 2; run++ {
		w, err := NewJSONLWriter(path)
		if err != nil {
			t.Fatal(err)
		}
		w.OnEvent(context.Background(), &FindingEvent{Finding: finding.Finding{Type: "reflected-xss"}})
		w.Close(context.Background())
	}

	data, _ := os.ReadFile(path)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("Expected 2 appended lines, got %d", lines)
	}
}
