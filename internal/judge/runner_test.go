package judge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"lamatest/internal/config"
	"lamatest/internal/discovery"
	"lamatest/internal/report"
	"lamatest/internal/toolchain"
)

// The batch tests drive the real runner against stub executables: a fake
// compiler that drops an empty .bc into the working directory and a fake
// interpreter whose output depends on the artifact name.

const lamacScript = `#!/bin/sh
case "$1" in
-64)
	src="$2"
	case "$src" in
	*broken*) echo "syntax error" >&2; exit 2 ;;
	esac
	base=$(basename "$src" .lama)
	: > "$base.bc"
	;;
-i)
	cat > /dev/null
	echo "> 55"
	echo 310
	echo 310
	;;
-s)
	cat > /dev/null
	echo "different"
	;;
esac
`

const lamarikScript = `#!/bin/sh
bc="$2"
case "$bc" in
*wrong*)
	echo 999
	;;
*crash*)
	echo "*** FAILURE: boom"
	;;
*stdin*)
	read v
	echo "> $v"
	;;
*)
	cat > /dev/null
	echo "> 55"
	echo 310
	echo 310
	;;
esac
`

type harness struct {
	cfg     *config.Config
	runner  *Runner
	failLog *report.FailureLog
	console *os.File
}

func newHarness(t *testing.T, refMode string) *harness {
	t.Helper()

	work := t.TempDir()
	chdir(t, work)

	bin := filepath.Join(work, "bin")
	if err := os.Mkdir(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	writeScript(t, filepath.Join(bin, "lamac"), lamacScript)
	writeScript(t, filepath.Join(bin, "lamarik"), lamarikScript)

	cfg := &config.Config{
		Lamac:      filepath.Join(bin, "lamac"),
		Lamarik:    filepath.Join(bin, "lamarik"),
		RuntimeDir: work,
		StdLibDir:  work,
		DumpDir:    filepath.Join(work, "dump"),
		FailureLog: filepath.Join(work, "failures.log"),
	}

	failLog, err := report.NewFailureLog(cfg.FailureLog)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { failLog.Close() })

	console, err := os.Create(filepath.Join(work, "console.out"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { console.Close() })

	logger := zap.NewNop()
	return &harness{
		cfg:     cfg,
		runner:  NewRunner(toolchain.New(cfg, logger), refMode, report.NewConsole(console), failLog, logger),
		failLog: failLog,
		console: console,
	}
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
}

// writeCase creates <name>.lama plus a golden .t file and returns the case.
func writeCase(t *testing.T, dir, name, answers string) discovery.TestCase {
	t.Helper()
	src := filepath.Join(dir, name+".lama")
	if err := os.WriteFile(src, []byte("-- source under test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tfile := filepath.Join(dir, name+".t")
	if answers != "" {
		if err := os.WriteFile(tfile, []byte(answers), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return discovery.TestCase{Source: src, Answers: tfile}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunnerBatch(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()

	cases := []discovery.TestCase{
		writeCase(t, dir, "broken", "> 1"),
		writeCase(t, dir, "wrong", "> 55\n310\n310"),
		writeCase(t, dir, "good", "> 55\n310\n310"),
	}

	stats, results, err := h.runner.Run(context.Background(), cases)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Total != 3 || stats.Passed != 1 || stats.Failed != 2 {
		t.Errorf("stats = %+v, want total 3, passed 1, failed 2", stats)
	}

	wantStatus := []report.Status{report.StatusError, report.StatusFail, report.StatusPass}
	for i, want := range wantStatus {
		if results[i].Status != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Status, want)
		}
	}

	// The failing case after the erroring one was still processed, the
	// passing one after that too.
	if results[2].Name != "good.lama" {
		t.Errorf("unexpected case order: %+v", results)
	}

	// Compiled artifact of the good case was moved into the dump dir.
	if _, err := os.Stat(filepath.Join(h.cfg.DumpDir, "good.bc")); err != nil {
		t.Errorf("expected good.bc in dump dir: %v", err)
	}

	log := readFile(t, h.failLog.Path())
	if !strings.Contains(log, "broken.lama: EXCEPTION") {
		t.Errorf("failure log missing exception block:\n%s", log)
	}
	if !strings.Contains(log, "wrong.lama:") ||
		!strings.Contains(log, "---- Golden answers ----") ||
		!strings.Contains(log, "[55, 310, 310]") ||
		!strings.Contains(log, "[999]") {
		t.Errorf("failure log missing answer diff:\n%s", log)
	}
	if strings.Contains(log, "good.lama") {
		t.Errorf("passing case leaked into failure log:\n%s", log)
	}
}

func TestRunnerFeedsStdin(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()

	tc := writeCase(t, dir, "stdin", "> 77")
	input := filepath.Join(dir, "stdin.input")
	if err := os.WriteFile(input, []byte("77\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tc.Input = input

	stats, _, err := h.runner.Run(context.Background(), []discovery.TestCase{tc})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Passed != 1 {
		t.Errorf("stats = %+v, want the stdin case to pass", stats)
	}
}

func TestRunnerUnreadableInputIsPerTestError(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()

	bad := writeCase(t, dir, "badinput", "> 55\n310\n310")
	bad.Input = filepath.Join(dir, "badinput.input")
	if err := os.Mkdir(bad.Input, 0o755); err != nil {
		t.Fatal(err)
	}
	good := writeCase(t, dir, "good", "> 55\n310\n310")

	stats, results, err := h.runner.Run(context.Background(), []discovery.TestCase{bad, good})
	if err != nil {
		t.Fatalf("an input read failure must not abort the batch: %v", err)
	}
	if stats.Failed != 1 || stats.Passed != 1 {
		t.Errorf("stats = %+v, want one error and one pass", stats)
	}
	if results[0].Status != report.StatusError {
		t.Errorf("results[0] = %s, want %s", results[0].Status, report.StatusError)
	}
	log := readFile(t, h.failLog.Path())
	if !strings.Contains(log, "badinput.lama: EXCEPTION") {
		t.Errorf("failure log missing the input read error:\n%s", log)
	}
}

func TestRunnerReferenceMode(t *testing.T) {
	t.Run("reference agrees", func(t *testing.T) {
		h := newHarness(t, "i")
		tc := writeCase(t, t.TempDir(), "good", "> 55\n310\n310")

		stats, _, err := h.runner.Run(context.Background(), []discovery.TestCase{tc})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if stats.Passed != 1 {
			t.Errorf("stats = %+v, want pass with agreeing reference", stats)
		}
		if stats.RefTime <= 0 {
			t.Errorf("reference time not accumulated: %+v", stats)
		}
	})

	t.Run("reference output differs", func(t *testing.T) {
		h := newHarness(t, "s")
		tc := writeCase(t, t.TempDir(), "good", "> 55\n310\n310")

		stats, results, err := h.runner.Run(context.Background(), []discovery.TestCase{tc})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if stats.Failed != 1 || results[0].Status != report.StatusFail {
			t.Errorf("stats = %+v, want fail on reference mismatch", stats)
		}
		log := readFile(t, h.failLog.Path())
		if !strings.Contains(log, "---- Reference output ----") {
			t.Errorf("failure log missing reference output:\n%s", log)
		}
	})
}

func TestRunnerRuntimeFailureMarker(t *testing.T) {
	h := newHarness(t, "")
	tc := writeCase(t, t.TempDir(), "crash", "")
	// The interpreter exits zero but prints the failure marker; golden file
	// intentionally empty so the sequences would match.
	if err := os.WriteFile(tc.Answers, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	stats, results, err := h.runner.Run(context.Background(), []discovery.TestCase{tc})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Failed != 1 || results[0].Status != report.StatusFail {
		t.Errorf("stats = %+v, want fail on runtime failure marker", stats)
	}
}

func TestRunnerMissingAnswersIsFatal(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()
	tc := writeCase(t, dir, "good", "") // no .t written

	_, _, err := h.runner.Run(context.Background(), []discovery.TestCase{tc})
	if err == nil {
		t.Fatal("expected a fatal error for a missing answers file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunnerMissingToolIsFatal(t *testing.T) {
	h := newHarness(t, "")
	h.cfg.Lamac = filepath.Join(t.TempDir(), "no-such-lamac")
	tc := writeCase(t, t.TempDir(), "good", "> 55")

	_, _, err := h.runner.Run(context.Background(), []discovery.TestCase{tc})
	var notFound *toolchain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFailureLogHoldsOnlyLatestRun(t *testing.T) {
	h := newHarness(t, "")
	tc := writeCase(t, t.TempDir(), "wrong", "> 55\n310\n310")

	if _, _, err := h.runner.Run(context.Background(), []discovery.TestCase{tc}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	h.failLog.Close()

	// Second batch: reopening the log truncates it.
	failLog, err := report.NewFailureLog(h.cfg.FailureLog)
	if err != nil {
		t.Fatal(err)
	}
	defer failLog.Close()
	logger := zap.NewNop()
	runner := NewRunner(toolchain.New(h.cfg, logger), "", report.NewConsole(h.console), failLog, logger)

	if _, _, err := runner.Run(context.Background(), []discovery.TestCase{tc}); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	log := readFile(t, h.cfg.FailureLog)
	if n := strings.Count(log, "wrong.lama:"); n != 1 {
		t.Errorf("expected exactly one failure block after two runs, got %d:\n%s", n, log)
	}
}
