package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/logger"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func readSorted(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	slices.Sort(lines)
	return lines
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, logger.Nop())
	return stdout.String(), err
}

func TestRun_Files(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input []string
		want  []string
	}{
		{"upper", []string{"-t", "upper", "-w", "2"}, []string{"a", "bc", "def"}, []string{"A", "BC", "DEF"}},
		{"revcomp batched", []string{"-t", "revcomp", "-w", "3", "-b", "2"}, []string{"ACGT", "AAAN", "ggc"}, []string{"ACGT", "NTTT", "gcc"}},
		{"reverse with poll", []string{"-t", "reverse", "--backoff", "poll", "-w", "1"}, []string{"abc", "xy"}, []string{"cba", "yx"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := writeLines(t, tc.input...)
			out := filepath.Join(t.TempDir(), "out.txt")
			args := append([]string{"-i", in, "-o", out}, tc.args...)

			if _, err := runCLI(t, "", args...); err != nil {
				t.Fatalf("run: %v", err)
			}
			want := slices.Clone(tc.want)
			slices.Sort(want)
			if got := readSorted(t, out); !slices.Equal(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestRun_StdinToStdout(t *testing.T) {
	var input strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&input, "line-%03d\n", i)
	}
	stdout, err := runCLI(t, input.String(), "-t", "upper", "-w", "4", "--rate", "100000")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	if len(lines) != 200 {
		t.Fatalf("expected 200 lines, got %d", len(lines))
	}
	slices.Sort(lines)
	if lines[0] != "LINE-000" || lines[199] != "LINE-199" {
		t.Errorf("unexpected output range %q..%q", lines[0], lines[199])
	}
}

func TestRun_EnvOverride(t *testing.T) {
	t.Setenv("SLOTCAT_TRANSFORM", "lower")
	t.Setenv("SLOTCAT_PIPELINE_WORKERS", "2")
	stdout, err := runCLI(t, "ABC\n")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout != "abc\n" {
		t.Errorf("expected env transform, got %q", stdout)
	}

	// Flags win over the environment.
	stdout, err = runCLI(t, "abc\n", "-t", "upper")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout != "ABC\n" {
		t.Errorf("expected flag transform, got %q", stdout)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := "name: slotcat-test\ntransform: reverse\npipeline:\n  workers: 2\n  backoff: poll\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	stdout, err := runCLI(t, "abc\n", "--config", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout != "cba\n" {
		t.Errorf("expected transform from config file, got %q", stdout)
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  errors.ErrorCode
	}{
		{"unknown transform", "x\n", []string{"-t", "rot13"}, errors.ErrCodeInvalidConfig},
		{"bad workers", "x\n", []string{"-w", "-3"}, errors.ErrCodeInvalidConfig},
		{"bad backoff", "x\n", []string{"--backoff", "spin"}, errors.ErrCodeInvalidConfig},
		{"json logs", "x\n", []string{"--log-format", "json"}, ""},
		{"bad base", "ACGT\nACXT\n", []string{"-t", "revcomp", "-w", "2"}, errors.ErrCodeTransformFailed},
		{"missing input", "", []string{"-i", "/nonexistent/in.txt"}, errors.ErrCodeSourceFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, tc.stdin, tc.args...)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestRun_LogsOnStdoutRejected(t *testing.T) {
	t.Setenv("SLOTCAT_LOGGING_OUTPUT", "stdout")
	_, err := runCLI(t, "x\n")
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestRun_Version(t *testing.T) {
	stdout, err := runCLI(t, "", "--version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout, "slotcat ") {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestRun_Help(t *testing.T) {
	if _, err := runCLI(t, "", "--help"); err != nil {
		t.Errorf("expected help to exit cleanly, got %v", err)
	}
	if _, err := runCLI(t, "", "--no-such-flag"); err == nil {
		t.Error("expected an unknown flag to fail")
	}
}

func TestRun_ReturnsOnceDrained(t *testing.T) {
	in := writeLines(t, "a", "b")
	out := filepath.Join(t.TempDir(), "out.txt")

	done := make(chan error, 1)
	go func() {
		_, err := runCLI(t, "", "-i", in, "-o", out, "-t", "upper", "-w", "2")
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the input drained")
	}
	if got := readSorted(t, out); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("unexpected output %v", got)
	}
}

// openHandles counts this process's descriptors that refer to path.
func openHandles(t *testing.T, path string) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("descriptor listing needs /proc")
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	n := 0
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err == nil && (target == path || target == resolved) {
			n++
		}
	}
	return n
}

func TestRun_DrainTimeoutClosesOutput(t *testing.T) {
	t.Setenv("SLOTCAT_SHUTDOWN_TIMEOUT", "50ms")
	out := filepath.Join(t.TempDir(), "out.txt")

	// The reader never yields, so the run cannot drain before the timeout.
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"-o", out, "-t", "upper", "-w", "2"}, pr, &stdout, &stderr, logger.Nop())
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if n := openHandles(t, out); n != 0 {
		t.Errorf("expected the output file to be closed, %d handles open", n)
	}
}
