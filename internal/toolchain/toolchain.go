// internal/toolchain/toolchain.go
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"lamatest/internal/config"
)

// RunResult is the outcome of one subprocess invocation that actually ran.
// Output is stdout and stderr joined with a single newline, surrounding
// whitespace trimmed. Exit codes of any value are normal results here; how
// they are judged is the caller's business.
type RunResult struct {
	ExitCode int
	Elapsed  time.Duration
	Output   string
}

// NotFoundError means the executable itself is missing. The harness cannot
// proceed meaningfully without its tools, so callers treat this as fatal
// rather than as one more failing test.
type NotFoundError struct {
	Tool string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executable not found: %s", e.Tool)
}

// StartError covers invocations that could not be started for any reason
// other than a missing executable (permissions, fork failure). It is scoped
// to the single test case being processed.
type StartError struct {
	Cmd []string
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("error running %s: %v", strings.Join(e.Cmd, " "), e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// CompileError is a compiler run that exited non-zero.
type CompileError struct {
	Source string
	Stderr string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compilation failed for %s\n%s", e.Source, e.Stderr)
}

// Toolchain invokes the compiler, the target interpreter and the reference
// implementation as external processes.
type Toolchain struct {
	cfg    *config.Config
	logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Toolchain {
	return &Toolchain{cfg: cfg, logger: logger}
}

// Compile compiles src to bytecode and moves the artifact into the dump
// directory, returning the artifact's new path. The compiler drops
// <stem>.bc into the current working directory.
func (t *Toolchain) Compile(ctx context.Context, src string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("source file missing: %w", err)
	}
	if err := os.MkdirAll(t.cfg.DumpDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}

	argv := []string{t.cfg.Lamac, "-64", src, "-I", t.cfg.StdLibDir, "-runtime", t.cfg.RuntimeDir, "-b"}
	res, err := t.run(ctx, argv, nil)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &CompileError{Source: src, Stderr: res.Output}
	}

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	generated := stem + ".bc"
	if _, err := os.Stat(generated); err != nil {
		return "", fmt.Errorf("expected bytecode file not produced, searched: %s\ncompiler output:\n%s", generated, res.Output)
	}

	dest := filepath.Join(t.cfg.DumpDir, generated)
	if err := moveFile(generated, dest); err != nil {
		return "", fmt.Errorf("failed to move artifact into %s: %w", t.cfg.DumpDir, err)
	}
	t.logger.Debug("compiled", zap.String("source", src), zap.String("artifact", dest))
	return dest, nil
}

// RunTarget runs the target interpreter on a bytecode artifact, feeding the
// input file (if any) on stdin.
func (t *Toolchain) RunTarget(ctx context.Context, bc, input string) (RunResult, error) {
	stdin, err := stdinFor(input)
	if err != nil {
		return RunResult{}, err
	}
	t.logger.Debug("running target", zap.String("artifact", bc))
	return t.run(ctx, []string{t.cfg.Lamarik, "-l", bc}, stdin)
}

// RunReference runs the reference implementation on the original source in
// mode "i" (interpreter) or "s" (stack machine), with the same stdin as the
// target run.
func (t *Toolchain) RunReference(ctx context.Context, src, input, mode string) (RunResult, error) {
	if mode != "i" && mode != "s" {
		return RunResult{}, fmt.Errorf("reference mode must be \"i\" or \"s\", got %q", mode)
	}
	stdin, err := stdinFor(input)
	if err != nil {
		return RunResult{}, err
	}
	t.logger.Debug("running reference", zap.String("source", src), zap.String("mode", mode))
	return t.run(ctx, []string{t.cfg.Lamac, "-" + mode, src}, stdin)
}

// run executes argv to completion and classifies the outcome into the
// closed set: ran-with-exit-code (a RunResult, any code), executable not
// found (NotFoundError) and everything else (StartError).
func (t *Toolchain) run(ctx context.Context, argv []string, stdin io.Reader) (RunResult, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound):
			return RunResult{}, &NotFoundError{Tool: argv[0]}
		case errors.Is(err, os.ErrNotExist):
			return RunResult{}, &NotFoundError{Tool: argv[0]}
		default:
			return RunResult{}, &StartError{Cmd: argv, Err: err}
		}
	}

	return RunResult{
		ExitCode: exitCode,
		Elapsed:  elapsed,
		Output:   strings.TrimSpace(stdout.String() + "\n" + stderr.String()),
	}, nil
}

// stdinFor opens the input fixture lazily; a missing or empty path means no
// stdin at all, matching an interactive run with closed input. Any other
// read failure on an existing input file is an error, not a silent run
// with empty stdin.
func stdinFor(input string) (io.Reader, error) {
	if input == "" {
		return nil, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read input file %s: %w", input, err)
	}
	return bytes.NewReader(data), nil
}

// moveFile renames, falling back to copy-and-remove for cross-device moves.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
