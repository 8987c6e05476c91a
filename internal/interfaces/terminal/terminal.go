// Package terminal is the interactive console front-end: one conversation,
// streamed answers with renumbered citations, and a reference footer after
// each exchange.
package terminal

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
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

const inputPrompt = ">> "

// Config carries the facts shown in the welcome banner.
type Config struct {
	Model string
}

// Terminal drives one console conversation against the pipeline.
type Terminal struct {
	pipeline *service.Pipeline
	logger   *zap.Logger
	config   Config
	history  *entity.History
	in       io.Reader
	out      io.Writer
}

// New builds a session reading os.Stdin and writing os.Stdout.
func New(pipeline *service.Pipeline, logger *zap.Logger, cfg Config) *Terminal {
	return NewWithIO(pipeline, logger, cfg, os.Stdin, os.Stdout)
}

// NewWithIO builds a session on explicit streams, for tests.
func NewWithIO(pipeline *service.Pipeline, logger *zap.Logger, cfg Config, in io.Reader, out io.Writer) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{
		pipeline: pipeline,
		logger:   logger,
		config:   cfg,
		history:  &entity.History{},
		in:       in,
		out:      out,
	}
}

// Run reads inquiries until EOF. Commands are handled locally; everything
// else goes through the pipeline with the answer streamed as it arrives.
func (t *Terminal) Run(ctx context.Context) error {
	t.printBanner()

	scanner := bufio.NewScanner(t.in)
	// Allow long input lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprintf(t.out, "%s%s%s", colorBold, inputPrompt, colorReset)

		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if t.handleCommand(input) {
			continue
		}

		if err := t.runInquiry(ctx, input); err != nil {
			fmt.Fprintf(t.out, "%sError: %v%s\n", colorYellow, err, colorReset)
			t.logger.Error("terminal inquiry failed", zap.Error(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	fmt.Fprintln(t.out, "\nGoodbye!")
	return nil
}

// handleCommand intercepts the reset and review commands.
func (t *Terminal) handleCommand(input string) bool {
	switch strings.ToLower(input) {
	case "!reset", "/reset":
		t.history.Reset()
		fmt.Fprintf(t.out, "%sHistory cleared%s\n", colorCyan, colorReset)
		return true

	case "!review", "/review":
		if entry, ok := t.history.Last(); ok {
			fmt.Fprintln(t.out, service.RenderReview(entry))
		} else {
			fmt.Fprintf(t.out, "%sNothing to review yet%s\n", colorGray, colorReset)
		}
		return true

	default:
		return false
	}
}

// runInquiry pipes one inquiry through the pipeline. The citation rewriter
// sits between the stream delegate and the console so markers arrive
// renumbered; the exchange is appended to history only on success.
func (t *Terminal) runInquiry(ctx context.Context, inquiry string) error {
	tracker := service.NewTracker()
	rewriter := NewRewriter(t.out)

	start := time.Now()
	c := service.NewContext(inquiry, t.history.All(), service.Join(tracker, service.StreamFunc(rewriter.Push)))

	c, err := t.pipeline.Run(ctx, c)
	if err != nil {
		return err
	}
	rewriter.Flush()
	elapsed := time.Since(start)

	if c.Answer == "" {
		fmt.Fprintf(t.out, "%s(no references found)%s", colorGray, colorReset)
	}
	fmt.Fprintln(t.out)
	t.printReferences(rewriter.Refs(), c.References)
	fmt.Fprintf(t.out, "%s(%s)%s\n\n", colorGray, elapsed.Round(time.Millisecond), colorReset)

	t.history.Append(c.Entry(elapsed, tracker.Events()))
	return nil
}

// printReferences lists the cited references in their renumbered order.
func (t *Terminal) printReferences(cited []int, refs []entity.Reference) {
	if len(cited) == 0 || len(refs) == 0 {
		return
	}
	for k, n := range cited {
		for _, ref := range refs {
			if ref.Position == n {
				fmt.Fprintf(t.out, "%s[%d] %s\n    %s%s\n", colorGray, k+1, ref.Title, ref.URL, colorReset)
				break
			}
		}
	}
}

func (t *Terminal) printBanner() {
	fmt.Fprint(t.out, RenderBanner(t.config.Model, termWidth()))
}
