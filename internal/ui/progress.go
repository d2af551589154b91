package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one line of a command's checklist, e.g. "Sending WiFi settings".
type Step struct {
	Name    string
	Status  StepStatus
	Message string // e.g., "HTTP 200", "3 networks"
}

// Steps tracks a fixed list of named steps and renders them as a
// checklist under a bar.
type Steps struct {
	Steps []Step
	Width int
	bar   progress.Model
}

// NewSteps creates a tracker with every step pending.
func NewSteps(names ...string) *Steps {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}
	s := &Steps{Steps: steps}
	s.SetWidth(GetTerminalWidth())
	return s
}

// SetWidth sizes the bar to the terminal.
func (s *Steps) SetWidth(width int) *Steps {
	s.Width = width
	barWidth := min(max(width-24, 20), 50)
	s.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return s
}

// Set updates the status and message of step n (1-based). Out of range
// steps are ignored.
func (s *Steps) Set(n int, status StepStatus, message string) {
	if n < 1 || n > len(s.Steps) {
		return
	}
	s.Steps[n-1].Status = status
	s.Steps[n-1].Message = message
}

// Done reports how many steps have finished, skipped ones included.
func (s *Steps) Done() int {
	done := 0
	for _, step := range s.Steps {
		if step.Status == StepComplete || step.Status == StepSkipped {
			done++
		}
	}
	return done
}

// Percent is the finished fraction in [0,1].
func (s *Steps) Percent() float64 {
	if len(s.Steps) == 0 {
		return 1
	}
	return float64(s.Done()) / float64(len(s.Steps))
}

// Render returns the bar followed by every step line.
func (s *Steps) Render() string {
	lines := []string{s.renderBar(), ""}
	for i := range s.Steps {
		lines = append(lines, s.Line(i+1))
	}
	return strings.Join(lines, "\n")
}

func (s *Steps) String() string {
	return s.Render()
}

func (s *Steps) renderBar() string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]",
		s.bar.ViewAs(s.Percent()), s.Percent()*100, s.Done(), len(s.Steps)))
}

// Line renders step n (1-based) as "  [n/total] name      marker  (message)".
func (s *Steps) Line(n int) string {
	if n < 1 || n > len(s.Steps) {
		return ""
	}
	step := s.Steps[n-1]

	marker, style := StepMarkerPending, StepPendingStyle
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker = StepMarkerSkipped
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", n, len(s.Steps))
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", max(1, 40-lipgloss.Width(step.Name))))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  " + StepNoteStyle.Render("("+step.Message+")"))
	}
	return b.String()
}

// StepFunc reports progress on step n (1-based) of a running operation.
type StepFunc func(n int, status StepStatus, message string)
