package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"
)

func shellRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	opts.Interpreter = []string{"sh"}
	return NewRunner(opts)
}

func strPtr(s string) *string { return &s }

func TestMatches(t *testing.T) {
	cases := []struct {
		actual, expected string
		want             bool
	}{
		{"Hello, World!", "Hello, World!", true},
		{"  Hello, World!\n", "Hello, World!", true},
		{"8", "8.0", false},
		{"2\n4\n6", "2\n4\n6\n", true},
		{"a b", "a  b", false},
		{"", "", true},
	}
	for _, tc := range cases {
		if got := Matches(tc.actual, tc.expected); got != tc.want {
			t.Fatalf("Matches(%q,%q): want=%v got=%v", tc.actual, tc.expected, tc.want, got)
		}
	}
}

func TestExecuteMatchingOutput(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir()})

	res := r.Execute(context.Background(), "echo 'Hello, World!'\n", strPtr("Hello, World!"), 2*time.Second)
	if !res.Success {
		t.Fatalf("success: want=true got=false err=%q", res.Error)
	}
	if res.Output != "Hello, World!" {
		t.Fatalf("output: want=%q got=%q", "Hello, World!", res.Output)
	}
	if res.MatchesExpected == nil || !*res.MatchesExpected {
		t.Fatalf("matches_expected: want=true got=%v", res.MatchesExpected)
	}
	if res.ExecutionID == "" {
		t.Fatalf("execution id should be set")
	}
}

func TestExecuteWithoutExpectedLeavesMatchUnset(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir()})

	res := r.Execute(context.Background(), "echo 8", nil, 2*time.Second)
	if res.MatchesExpected != nil {
		t.Fatalf("matches_expected: want=nil got=%v", *res.MatchesExpected)
	}

	res = r.Execute(context.Background(), "echo 8", strPtr("8.0"), 2*time.Second)
	if !res.Success || res.MatchesExpected == nil || *res.MatchesExpected {
		t.Fatalf("8 vs 8.0: want success=true matches=false got success=%v matches=%v", res.Success, res.MatchesExpected)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir()})

	res := r.Execute(context.Background(), "echo out\necho boom >&2\nexit 3\n", nil, 2*time.Second)
	if res.Success {
		t.Fatalf("success: want=false got=true")
	}
	if res.Output != "out" {
		t.Fatalf("output: want=%q got=%q", "out", res.Output)
	}
	if res.Error != "boom" {
		t.Fatalf("error: want=%q got=%q", "boom", res.Error)
	}
}

func TestExecuteTimeout(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir()})

	timeout := 300 * time.Millisecond
	start := time.Now()
	res := r.Execute(context.Background(), "echo partial\nwhile :; do :; done\n", strPtr("partial"), timeout)
	elapsed := time.Since(start)

	if res.Success || !res.TimedOut {
		t.Fatalf("success/timed_out: want=false/true got=%v/%v", res.Success, res.TimedOut)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Fatalf("error: want timeout message got=%q", res.Error)
	}
	if elapsed > timeout+2*time.Second {
		t.Fatalf("elapsed: want <= %v got=%v", timeout+2*time.Second, elapsed)
	}
	if res.ExecutionTime < timeout.Seconds() {
		t.Fatalf("execution_time: want >= %v got=%v", timeout.Seconds(), res.ExecutionTime)
	}
	if res.Output != "partial" {
		t.Fatalf("partial output: want=%q got=%q", "partial", res.Output)
	}
	if res.MatchesExpected == nil || *res.MatchesExpected {
		t.Fatalf("timed out run must not match: got=%v", res.MatchesExpected)
	}
}

func TestExecuteKillsBackgroundChildren(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir()})

	start := time.Now()
	res := r.Execute(context.Background(), "sleep 30 &\necho started\n", nil, 5*time.Second)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("background child kept the run alive for %v", elapsed)
	}
	if !res.Success || res.Output != "started" {
		t.Fatalf("want success with output %q got success=%v output=%q err=%q", "started", res.Success, res.Output, res.Error)
	}
}

func TestExecuteRemovesTempFiles(t *testing.T) {
	work := t.TempDir()
	r := shellRunner(t, Options{WorkDir: work})

	r.Execute(context.Background(), "echo hi", nil, time.Second)
	r.Execute(context.Background(), "exit 1", nil, time.Second)
	r.Execute(context.Background(), "sleep 5", nil, 200*time.Millisecond)

	entries, err := os.ReadDir(work)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir should be empty, found %d entries", len(entries))
	}
}

func TestExecuteSpawnFailure(t *testing.T) {
	r := NewRunner(Options{Interpreter: []string{"/nonexistent/interpreter"}, WorkDir: t.TempDir()})

	res := r.Execute(context.Background(), "print(1)", strPtr("1"), time.Second)
	if res.Success {
		t.Fatalf("success: want=false got=true")
	}
	if res.Error == "" {
		t.Fatalf("error should carry the spawn failure")
	}
	if res.MatchesExpected == nil || *res.MatchesExpected {
		t.Fatalf("matches_expected: want=false got=%v", res.MatchesExpected)
	}
}

func TestExecuteTempDirFailure(t *testing.T) {
	r := NewRunner(Options{Interpreter: []string{"sh"}, WorkDir: "/nonexistent/dir/for/sandbox"})

	res := r.Execute(context.Background(), "echo 1", nil, time.Second)
	if res.Success || res.Error == "" {
		t.Fatalf("want failed result with error, got success=%v err=%q", res.Success, res.Error)
	}
}

func TestExecuteConcurrentRunsAreIndependent(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir(), MaxConcurrent: 3})

	var wg sync.WaitGroup
	results := make([]ExecutionResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Execute(context.Background(), fmt.Sprintf("echo %d", i), nil, 5*time.Second)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, res := range results {
		if want := fmt.Sprint(i); res.Output != want {
			t.Fatalf("run %d: want=%q got=%q err=%q", i, want, res.Output, res.Error)
		}
		if seen[res.ExecutionID] {
			t.Fatalf("duplicate execution id %s", res.ExecutionID)
		}
		seen[res.ExecutionID] = true
	}
}

func TestExecuteQueueWaitCountsTowardsTimeout(t *testing.T) {
	r := shellRunner(t, Options{WorkDir: t.TempDir(), MaxConcurrent: 1})

	timeout := time.Second
	var wg sync.WaitGroup
	results := make([]ExecutionResult, 2)
	elapsed := make([]time.Duration, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			results[i] = r.Execute(context.Background(), "while :; do :; done\n", nil, timeout)
			elapsed[i] = time.Since(start)
		}(i)
		time.Sleep(100 * time.Millisecond)
	}
	wg.Wait()

	limit := timeout + 600*time.Millisecond
	for i, res := range results {
		if !res.TimedOut || res.Success {
			t.Fatalf("run %d: want timed out got success=%v err=%q", i, res.Success, res.Error)
		}
		if elapsed[i] > limit {
			t.Fatalf("run %d elapsed: want <= %v got=%v", i, limit, elapsed[i])
		}
		if res.ExecutionTime > limit.Seconds() {
			t.Fatalf("run %d execution_time: want <= %v got=%v", i, limit.Seconds(), res.ExecutionTime)
		}
	}
}

func TestDefaultTimeoutHotReload(t *testing.T) {
	r := NewRunner(Options{})
	if got := r.DefaultTimeout(); got != 5*time.Second {
		t.Fatalf("default: want=5s got=%v", got)
	}
	r.SetDefaultTimeout(2 * time.Second)
	if got := r.DefaultTimeout(); got != 2*time.Second {
		t.Fatalf("reloaded: want=2s got=%v", got)
	}
}

func TestTimeoutMessage(t *testing.T) {
	if got := timeoutMessage(5 * time.Second); got != "Execution timed out after 5 seconds" {
		t.Fatalf("got=%q", got)
	}
	if got := timeoutMessage(1500 * time.Millisecond); got != "Execution timed out after 1.5 seconds" {
		t.Fatalf("got=%q", got)
	}
}

func TestRoundSeconds(t *testing.T) {
	if got := roundSeconds(1234567 * time.Microsecond); got != 1.235 {
		t.Fatalf("want=1.235 got=%v", got)
	}
}

func TestCappedBuffer(t *testing.T) {
	b := newCappedBuffer(4)
	n, err := b.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("write: want n=6 err=nil got n=%d err=%v", n, err)
	}
	b.Write([]byte("gh"))
	if b.String() != "abcd" || !b.Truncated() {
		t.Fatalf("want %q truncated got %q truncated=%v", "abcd", b.String(), b.Truncated())
	}
}
