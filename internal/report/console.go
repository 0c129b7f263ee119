// internal/report/console.go
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Console prints the per-case protocol lines and the final summary. Status
// tokens are colored only when stdout is a terminal.
type Console struct {
	out   *os.File
	color bool
}

func NewConsole(out *os.File) *Console {
	return &Console{
		out:   out,
		color: isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()),
	}
}

func (c *Console) Header(total int) {
	fmt.Fprintf(c.out, "Testing %d file(s)...\n\n", total)
}

// CaseLine prints the one-line status for a decided case, e.g.
//
//	test084.lama                   [PASS]  target:0.123s  ref(i):0.456s
func (c *Console) CaseLine(r CaseResult, refMode string) {
	line := fmt.Sprintf("%-30s [%s]  target:%.3fs", r.Name, c.paint(r.Status), r.Target.Seconds())
	if refMode != "" {
		line += fmt.Sprintf("  ref(%s):%.3fs", refMode, r.Ref.Seconds())
	}
	fmt.Fprintln(c.out, line)
}

// ErrorLine prints the status for a case that died before a verdict.
func (c *Console) ErrorLine(name string, err error) {
	fmt.Fprintf(c.out, "%-30s [%s] %v\n", name, c.paint(StatusError), err)
}

func (c *Console) Summary(stats BatchStats, refMode, failLog string) {
	fmt.Fprintln(c.out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(c.out, "Summary")
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	fmt.Fprintf(c.out, "Total   : %d\n", stats.Total)
	fmt.Fprintf(c.out, "Passed  : %d\n", stats.Passed)
	fmt.Fprintf(c.out, "Failed  : %d\n", stats.Failed)
	fmt.Fprintf(c.out, "Target  : %.3fs\n", stats.TargetTime.Seconds())
	if refMode != "" {
		fmt.Fprintf(c.out, "Reference(%s) : %.3fs\n", refMode, stats.RefTime.Seconds())
	}
	if stats.Failed > 0 && failLog != "" {
		fmt.Fprintf(c.out, "\nDetails of failures are stored in %s\n", failLog)
	}
}

func (c *Console) paint(s Status) string {
	if !c.color {
		return string(s)
	}
	if s == StatusPass {
		return colorGreen + string(s) + colorReset
	}
	return colorRed + string(s) + colorReset
}
