package sqli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/param"
)

func newTestProber(srv *httptest.Server) *Prober {
	cfg := DefaultConfig()
	cfg.Client = srv.Client()
	return NewProber(cfg)
}

func TestTestParameter_VulnerableParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if strings.ContainsAny(id, `'"`) {
			fmt.Fprint(w, "You have an error in your SQL syntax; check the manual")
			return
		}
		fmt.Fprint(w, "<html>product page</html>")
	}))
	defer srv.Close()

	p := newTestProber(srv)
	findings, err := p.TestParameter(context.Background(), srv.URL+"/?id=1", param.NewObservation("id", "1", "query"))
	if err != nil {
		t.Fatalf("TestParameter failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != "sql-injection (mysql)" {
		t.Errorf("Expected MySQL attribution, got %q", f.Type)
	}
	if f.Parameter != "id" {
		t.Errorf("Expected parameter id, got %q", f.Parameter)
	}
	if !strings.Contains(f.Evidence, "SQL syntax") {
		t.Errorf("Evidence missing error text: %q", f.Evidence)
	}
}

func TestTestParameter_CleanParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>always the same page</html>")
	}))
	defer srv.Close()

	p := newTestProber(srv)
	findings, err := p.TestParameter(context.Background(), srv.URL+"/?id=1", param.NewObservation("id", "1", "query"))
	if err != nil {
		t.Fatalf("TestParameter failed: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("Expected no findings, got %+v", findings)
	}
}

func TestTestParameter_BaselineAlreadyErrored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every response carries an SQL error plus noise, so no payload
		// can be credited with triggering it.
		fmt.Fprintf(w, "SQL error near line 1 [%s]", r.URL.RawQuery)
	}))
	defer srv.Close()

	p := newTestProber(srv)
	findings, err := p.TestParameter(context.Background(), srv.URL+"/?id=1", param.NewObservation("id", "1", "query"))
	if err != nil {
		t.Fatalf("TestParameter failed: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("Baseline error must suppress findings, got %+v", findings)
	}
}

func TestTestParameter_UnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewProber(DefaultConfig())
	_, err := p.TestParameter(context.Background(), srv.URL+"/?id=1", param.NewObservation("id", "1", "query"))
	if err == nil {
		t.Fatal("Expected transport error for closed server")
	}
	if !errors.Is(err, finding.ErrTargetUnreachable) {
		t.Errorf("Expected ErrTargetUnreachable classification, got %v", err)
	}
}

func TestTestParameter_NoPayloads(t *testing.T) {
	p := NewProber(DefaultConfig())
	p.SetPayloads(nil)

	_, err := p.TestParameter(context.Background(), "http://127.0.0.1:0/?id=1", param.NewObservation("id", "1", "query"))
	if !errors.Is(err, finding.ErrNoPayloads) {
		t.Fatalf("Expected ErrNoPayloads, got %v", err)
	}
}

func TestContainsError_Attribution(t *testing.T) {
	tests := []struct {
		body string
		want DBMS
	}{
		{"You have an error in your SQL syntax", DBMSMySQL},
		{"ERROR: syntax error at or near \"'\"", DBMSPostgreSQL},
		{"Unclosed quotation mark after the character string", DBMSMSSQL},
		{"ORA-01756: quoted string not properly terminated", DBMSOracle},
	}
	for _, tt := range tests {
		found, dbms, evidence := containsError(tt.body)
		if !found {
			t.Errorf("containsError(%q) found nothing", tt.body)
			continue
		}
		if dbms != tt.want {
			t.Errorf("containsError(%q) = %v, want %v", tt.body, dbms, tt.want)
		}
		if evidence == "" {
			t.Errorf("containsError(%q) returned empty evidence", tt.body)
		}
	}
}

func TestContainsError_CleanBody(t *testing.T) {
	if found, _, _ := containsError("<html>welcome to the shop</html>"); found {
		t.Error("False positive on clean body")
	}
}
