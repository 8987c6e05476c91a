// Package testrunner executes file-based conversation tests: scripted
// inquiries against the live pipeline, with regex expectations over the
// answers and the extracted fields.
package testrunner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	"github.com/gamalhq/gamal/internal/domain/service"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorCyan  = "\033[36m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// Runner drives the test files. One process-wide conversation: Story lines
// reset it, User lines extend it, expectation lines probe the latest run.
type Runner struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
	out      io.Writer

	// failExit stops at the first mismatch instead of counting on.
	failExit bool

	history  *entity.History
	last     service.Context
	hasRun   bool
	checks   int
	failures int
}

// New builds a runner writing to os.Stdout.
func New(pipeline *service.Pipeline, logger *zap.Logger, failExit bool) *Runner {
	return NewWithOutput(pipeline, logger, failExit, os.Stdout)
}

// NewWithOutput builds a runner on an explicit writer, for tests.
func NewWithOutput(pipeline *service.Pipeline, logger *zap.Logger, failExit bool, out io.Writer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		pipeline: pipeline,
		logger:   logger,
		out:      out,
		failExit: failExit,
		history:  &entity.History{},
	}
}

// Run executes the files in order and returns the mismatch count. A read
// error, an unknown role, or a mismatch under failExit aborts with an error.
func (r *Runner) Run(ctx context.Context, paths []string) (int, error) {
	for _, path := range paths {
		if err := r.runFile(ctx, path); err != nil {
			return r.failures, err
		}
	}

	if r.failures > 0 {
		fmt.Fprintf(r.out, "%s%d of %d checks failed%s\n", colorRed, r.failures, r.checks, colorReset)
	} else {
		fmt.Fprintf(r.out, "%sAll %d checks passed%s\n", colorGreen, r.checks, colorReset)
	}
	return r.failures, nil
}

func (r *Runner) runFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open test file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := r.runLine(ctx, path, lineNo, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// runLine handles one directive. The grammar is ROLE: content, with #
// starting an end-of-line comment.
func (r *Runner) runLine(ctx context.Context, path string, lineNo int, line string) error {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	role, content, found := strings.Cut(line, ":")
	if !found {
		return fmt.Errorf("%s:%d: not a directive: %q", path, lineNo, line)
	}
	role = strings.TrimSpace(role)
	content = strings.TrimSpace(content)

	switch role {
	case "Story":
		r.history.Reset()
		r.hasRun = false
		fmt.Fprintf(r.out, "\n%s%s── %s ──%s\n", colorBold, colorCyan, content, colorReset)
		return nil

	case "User":
		return r.runInquiry(ctx, content)

	case "Assistant":
		return r.check(path, lineNo, role, content, r.last.Answer)

	case "Pipeline.Reason.Keyphrases":
		return r.check(path, lineNo, role, content, r.last.Keyphrases)

	case "Pipeline.Reason.Topic":
		return r.check(path, lineNo, role, content, r.last.Topic)

	default:
		return fmt.Errorf("%s:%d: unknown role %q", path, lineNo, role)
	}
}

func (r *Runner) runInquiry(ctx context.Context, inquiry string) error {
	fmt.Fprintf(r.out, "%s>> %s%s\n", colorBold, inquiry, colorReset)

	tracker := service.NewTracker()
	start := time.Now()

	run := service.NewContext(inquiry, r.history.All(), tracker)
	run, err := r.pipeline.Run(ctx, run)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	r.history.Append(run.Entry(elapsed, tracker.Events()))
	r.last = run
	r.hasRun = true

	answer := run.Answer
	if answer == "" {
		answer = "(empty answer)"
	}
	fmt.Fprintf(r.out, "%s\n%s(%s)%s\n", answer, colorGray, elapsed.Round(time.Millisecond), colorReset)
	return nil
}

// check probes a field of the latest run against an expectation.
func (r *Runner) check(path string, lineNo int, role, expected, target string) error {
	r.checks++

	if !r.hasRun {
		return r.mismatch(path, lineNo, role, expected, "(no User line has run yet)")
	}

	exp, err := CompileExpectation(expected)
	if err != nil {
		return r.mismatch(path, lineNo, role, expected, err.Error())
	}

	ok, spans := exp.Match(target)
	if !ok {
		return r.mismatch(path, lineNo, role, expected, Highlight(target, spans))
	}

	fmt.Fprintf(r.out, "%s✓ %s: %s%s\n", colorGreen, role, expected, colorReset)
	r.logger.Debug("check passed",
		zap.String("role", role),
		zap.String("expected", expected),
	)
	return nil
}

// mismatch records a failed check. Under failExit it aborts the whole run.
func (r *Runner) mismatch(path string, lineNo int, role, expected, got string) error {
	r.failures++
	fmt.Fprintf(r.out, "%s✗ %s: %s%s\n  got: %s\n", colorRed, role, expected, colorReset, got)
	r.logger.Warn("check failed",
		zap.String("location", fmt.Sprintf("%s:%d", path, lineNo)),
		zap.String("role", role),
		zap.String("expected", expected),
	)

	if r.failExit {
		return apperrors.NewTestMismatch(fmt.Sprintf("%s:%d: %s did not match %q", path, lineNo, role, expected))
	}
	return nil
}
