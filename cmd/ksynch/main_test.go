package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/scenario"
	"github.com/kolkov/ksynch/internal/logging"
)

// runCLI runs a command line and returns its exit code and output.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Cleanup(logging.Reset)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestRunCommands tests dispatch and exit codes.
func TestRunCommands(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", nil, 2, "", "USAGE"},
		{"unknown command", []string{"frobnicate"}, 2, "", "Unknown command: frobnicate"},
		{"help", []string{"help"}, 0, "COMMANDS", ""},
		{"version", []string{"version"}, 0, "ksynch version 0.1.0", ""},
		{"version flag", []string{"--version"}, 0, "ksynch version", ""},
		{"version compatible", []string{"version", "-check", "v0.1"}, 0, "satisfies v0.1", ""},
		{"version incompatible", []string{"version", "-check", "v1.0.0"}, 1, "does not satisfy", ""},
		{"version invalid", []string{"version", "-check", "one"}, 2, "", "invalid version"},
		{"selftest", []string{"selftest"}, 0, "Testing semaphores...done.\n", ""},
		{"selftest mlfqs", []string{"selftest", "-policy", "mlfqs"}, 0, "Testing semaphores...done.\n", ""},
		{"selftest bad policy", []string{"selftest", "-policy", "fifo"}, 2, "", "unknown policy"},
		{"selftest bad depth", []string{"selftest", "-depth", "-1"}, 2, "", "negative"},
		{"scenarios", []string{"scenarios"}, 0, fmt.Sprintf("%d passed, 0 failed", len(scenario.All())), ""},
		{"scenarios serial", []string{"scenarios", "-parallel", "1"}, 0, "0 failed", ""},
		{"scenarios mlfqs", []string{"scenarios", "-policy", "mlfqs", "-v"}, 0, "H: got lock", ""},
		{"scenarios no match", []string{"scenarios", "-run", "^nothing$"}, 2, "", "no scenario matches"},
		{"scenarios bad parallel", []string{"scenarios", "-parallel", "0"}, 1, "", "-parallel"},
		{"scenarios list", []string{"scenarios", "-list", "-run", "condvar"}, 0, "condvar-broadcast", ""},
		{"scenarios shallow donation", []string{"scenarios", "-run", "^donate-nest$", "-depth", "1"}, 1, "1 failed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout, stderr)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout %q does not contain %q", stdout, tt.wantStdout)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr %q does not contain %q", stderr, tt.wantStderr)
			}
		})
	}
}

// TestEnvOptions tests that KSYNCH_OPTIONS provides defaults that flags
// override.
func TestEnvOptions(t *testing.T) {
	t.Setenv(config.EnvOptions, "policy=mlfqs")
	code, stdout, _ := runCLI(t, "scenarios", "-list", "-policy", "mlfqs")
	if code != 0 || !strings.Contains(stdout, "mlfqs-no-donation") {
		t.Errorf("mlfqs from env: code %d, stdout %q", code, stdout)
	}

	t.Setenv(config.EnvOptions, "policy=round-robin")
	code, _, stderr := runCLI(t, "selftest")
	if code != 2 || !strings.Contains(stderr, config.EnvOptions) {
		t.Errorf("bad env: code %d, stderr %q", code, stderr)
	}
}

// TestDebugLogging tests that -log debug traces the kernel to stderr.
func TestDebugLogging(t *testing.T) {
	code, _, stderr := runCLI(t, "selftest", "-log", "debug", "-format", "json")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %s", code, stderr)
	}
	for _, want := range []string{`"component":"sched"`, `"msg":"switch"`, `"msg":"self test passed"`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr does not contain %s", want)
		}
	}
}
