package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/ledsetup/internal/deviceconfig"
	"github.com/muurk/ledsetup/internal/logging"
	"go.uber.org/zap"
)

// RunnerConfig describes one non-interactive command run.
type RunnerConfig struct {
	Title   string  // e.g., "LED strip test"
	Command string  // e.g., "ledsetup-cfg test-strip"
	Params  []Param // shown in the header
	Steps   []string
	Output  io.Writer // default os.Stdout
}

// Runner prints a header, reports steps as they finish and closes with a
// result box. Failures get troubleshooting hints from deviceconfig.
type Runner struct {
	cfg    RunnerConfig
	out    io.Writer
	header *Header
	steps  *Steps
	width  int
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	width := GetTerminalWidth()
	return &Runner{
		cfg:    cfg,
		out:    cfg.Output,
		header: NewHeader(cfg.Title, cfg.Command, cfg.Params...).SetWidth(width),
		steps:  NewSteps(cfg.Steps...).SetWidth(width),
		width:  width,
	}
}

// Operation does the work of a command and returns the details to show
// on success.
type Operation func(ctx context.Context, step StepFunc) ([]Param, error)

// Run prints the header, runs op and prints its result. The error from
// op is returned unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()
	fmt.Fprintln(r.out, r.header.Render())
	fmt.Fprintln(r.out)

	details, err := op(ctx, r.step)
	elapsed := time.Since(start).Round(time.Millisecond)

	if len(r.steps.Steps) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, r.steps.renderBar())
	}
	fmt.Fprintln(r.out)
	if err != nil {
		logging.Error("Command failed", zap.String("command", r.cfg.Command), zap.Error(err))
		res := NewFailureResult(r.cfg.Title, errors.New(deviceconfig.GetShortErrorMessage(err)), troubleshooting(err))
		res.AddDetail("Duration", elapsed.String())
		fmt.Fprintln(r.out, res.SetWidth(r.width).Render())
		return err
	}

	res := NewSuccessResult(r.cfg.Title, details...)
	res.AddDetail("Duration", elapsed.String())
	fmt.Fprintln(r.out, res.SetWidth(r.width).Render())
	return nil
}

// Payload prints a request or response body between steps.
func (r *Runner) Payload(title, body string) {
	fmt.Fprintln(r.out, RenderPayload(title, body, r.width))
}

func (r *Runner) step(n int, status StepStatus, message string) {
	r.steps.Set(n, status, message)
	if status == StepPending || status == StepRunning {
		return
	}
	fmt.Fprintln(r.out, r.steps.Line(n))
}

func troubleshooting(err error) []string {
	if hint := deviceconfig.GetTroubleshootingHint(err); hint != "" {
		return []string{hint}
	}
	return nil
}
