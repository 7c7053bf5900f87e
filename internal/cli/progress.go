package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"quiz-autopilot/internal/autopilot"
)

var (
	colorCorrect   = lipgloss.Color("34")
	colorIncorrect = lipgloss.Color("160")
	colorMuted     = lipgloss.Color("242")
	colorHeader    = lipgloss.Color("33")
)

// progressPrinter writes one line per answered, skipped or unmatched
// question.
type progressPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	target  int
	noColor bool
}

func newProgressPrinter(out io.Writer, target int, noColor bool) *progressPrinter {
	return &progressPrinter{out: out, target: target, noColor: noColor}
}

func (p *progressPrinter) OnEvent(event autopilot.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Kind {
	case autopilot.EventStarted:
		target := "unbounded"
		if p.target > 0 {
			target = fmt.Sprintf("target %d", p.target)
		}
		fmt.Fprintln(p.out, stylize(fmt.Sprintf("Course %d | %s", event.CourseID, target), p.noColor, colorHeader))
	case autopilot.EventAnswered:
		verdict, color := "✗", colorIncorrect
		if event.Result != nil && event.Result.IsCorrect {
			verdict, color = "✓", colorCorrect
		}
		fmt.Fprintf(p.out, "%s %s %s => %s\n",
			p.counter(event.Progress),
			stylize(verdict, p.noColor, color),
			event.Question.Description,
			event.Answer,
		)
	case autopilot.EventSkipped:
		fmt.Fprintln(p.out, stylize(fmt.Sprintf("%s skipped (%s) %s", p.counter(event.Progress), event.Marker, event.Question.Description), p.noColor, colorMuted))
	case autopilot.EventNoAnswer:
		fmt.Fprintln(p.out, stylize(fmt.Sprintf("%s no answer %s", p.counter(event.Progress), event.Question.Description), p.noColor, colorMuted))
	case autopilot.EventStopped:
		fmt.Fprintln(p.out, stylize("Stopped: "+event.Reason.String(), p.noColor, colorHeader))
	}
}

func (p *progressPrinter) counter(progress autopilot.Progress) string {
	if p.target > 0 {
		return fmt.Sprintf("[%d/%d]", progress.Answered, p.target)
	}
	return fmt.Sprintf("[%d]", progress.Answered)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
