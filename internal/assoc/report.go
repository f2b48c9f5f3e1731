package assoc

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// printer writes the one-line progress messages. Styles come from a renderer
// bound to w, so nothing is colored unless w is a terminal.
type printer struct {
	w           io.Writer
	doneStyle   lipgloss.Style
	noticeStyle lipgloss.Style
	alertStyle  lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:           w,
		doneStyle:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5a4")),
		noticeStyle: r.NewStyle().Foreground(lipgloss.Color("240")),
		alertStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	}
}

func (p *printer) line(s lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.w, s.Render(fmt.Sprintf(format, args...)))
}

// Done reports a state change.
func (p *printer) Done(format string, args ...any) { p.line(p.doneStyle, format, args...) }

// Notice reports a skipped or no-op step.
func (p *printer) Notice(format string, args ...any) { p.line(p.noticeStyle, format, args...) }

// Alert reports something the user must act on.
func (p *printer) Alert(format string, args ...any) { p.line(p.alertStyle, format, args...) }

// Plain prints without styling.
func (p *printer) Plain(format string, args ...any) {
	fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}
