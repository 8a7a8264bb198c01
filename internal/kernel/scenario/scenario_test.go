package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/logging"
)

// TestCatalog runs every scenario and compares its log.
func TestCatalog(t *testing.T) {
	for _, sc := range All() {
		t.Run(sc.Name, func(t *testing.T) {
			res := Run(context.Background(), sc, config.Default(), logging.Discard())
			if res.Err != nil {
				t.Fatalf("kernel stopped with %v", res.Err)
			}
			if !res.Passed() {
				t.Errorf("%s\n got  %q\n want %q", res.Diff(), res.Events, res.Want)
			}
			if res.Policy != sc.Policy {
				t.Errorf("ran under %s, want %s", res.Policy, sc.Policy)
			}
		})
	}
}

// TestCatalogNames tests that names are unique and described.
func TestCatalogNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, sc := range All() {
		if seen[sc.Name] {
			t.Errorf("duplicate scenario %q", sc.Name)
		}
		seen[sc.Name] = true
		if sc.Description == "" || len(sc.Want) == 0 || sc.Main == nil {
			t.Errorf("scenario %q is incomplete", sc.Name)
		}
	}
	if _, ok := Lookup("donate-one"); !ok {
		t.Error("Lookup(donate-one) failed")
	}
	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup(missing) succeeded")
	}
}

// TestSelect tests pattern and policy filtering.
func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		policy  string
		want    int
		wantErr bool
	}{
		{"all", "", "", len(catalog), false},
		{"donate prefix", "^donate-", "", 6, false},
		{"mlfqs only", "", "mlfqs", 1, false},
		{"condvar donation", "condvar", "donation", 2, false},
		{"no match", "^nothing$", "", 0, true},
		{"bad pattern", "(", "", 0, true},
		{"bad policy", "", "fifo", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.pattern, tt.policy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("Select() returned %d scenarios, want %d", len(got), tt.want)
			}
		})
	}
}

// TestRunCancelled tests that a cancelled context keeps the kernel from
// starting.
func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc, _ := Lookup("sema-wake-order")
	res := Run(ctx, sc, config.Default(), logging.Discard())
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", res.Err)
	}
	if len(res.Events) != 0 || res.Passed() {
		t.Errorf("cancelled scenario recorded %v", res.Events)
	}
}

// TestDiff tests the mismatch description.
func TestDiff(t *testing.T) {
	r := Result{Events: []string{"a", "b"}, Want: []string{"a", "c", "d"}}
	if d := r.Diff(); !strings.Contains(d, "event 1") {
		t.Errorf("Diff() = %q", d)
	}
	r.Events = append(r.Events[:1], "c", "d")
	if d := r.Diff(); d != "" {
		t.Errorf("Diff() on equal logs = %q", d)
	}
}
