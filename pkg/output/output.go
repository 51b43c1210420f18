// Package output renders API results and token tallies for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/provider"
	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/tokens"
)

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

const timeLayout = "2006-01-02 15:04:05"

// Printer writes formatted output to w, with ANSI colours when enabled.
type Printer struct {
	w        io.Writer
	color    bool
	location *time.Location
}

// NewPrinter returns a Printer rendering timestamps in local time.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color, location: time.Local}
}

// WithLocation changes the zone used for timestamps.
func (p *Printer) WithLocation(loc *time.Location) *Printer {
	p.location = loc
	return p
}

// ShouldColor reports whether w is a terminal and colour was not disabled.
func ShouldColor(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + colorReset
}

func (p *Printer) when(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).In(p.location).Format(timeLayout)
}

// Printf writes unstyled text.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Success writes a green line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(colorGreen, fmt.Sprintf(format, args...)))
}

// Warn writes a red line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(colorRed, fmt.Sprintf(format, args...)))
}

// JSON pretty-prints v with two-space indentation.
func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// Files renders an ID / Size / Created At table.
func (p *Printer) Files(files []provider.FileInfo) {
	fmt.Fprintln(p.w, p.paint(colorGreen, fmt.Sprintf("%-30s%-14s%s", "ID", "Size", "Created At")))
	for _, f := range files {
		fmt.Fprintf(p.w, "%s%s%s\n",
			p.paint(colorCyan, fmt.Sprintf("%-30s", f.ID)),
			p.paint(colorYellow, fmt.Sprintf("%-14s", humanize.IBytes(uint64(max(f.Bytes, 0))))),
			p.paint(colorMagenta, p.when(f.CreatedAt)))
	}
}

// Jobs renders an ID / Model / Status / Created At table.
func (p *Printer) Jobs(jobs []provider.JobInfo) {
	fmt.Fprintln(p.w, p.paint(colorGreen, fmt.Sprintf("%-35s%-25s%-16s%s", "ID", "Model", "Status", "Created At")))
	for _, j := range jobs {
		fmt.Fprintf(p.w, "%s%s%s%s\n",
			p.paint(colorCyan, fmt.Sprintf("%-35s", j.ID)),
			p.paint(colorYellow, fmt.Sprintf("%-25s", j.Model)),
			p.paint(colorMagenta, fmt.Sprintf("%-16s", j.Status)),
			p.when(j.CreatedAt))
	}
}

// ModelsSummary prints the total and every model grouped under its owner.
// Owners appear in the order they are first seen.
func (p *Printer) ModelsSummary(models []provider.ModelInfo) {
	fmt.Fprintln(p.w, p.paint(colorGreen, fmt.Sprintf("Total models: %d", len(models))))
	fmt.Fprintln(p.w)

	var owners []string
	byOwner := make(map[string][]string)
	for _, m := range models {
		if _, ok := byOwner[m.OwnedBy]; !ok {
			owners = append(owners, m.OwnedBy)
		}
		byOwner[m.OwnedBy] = append(byOwner[m.OwnedBy], m.ID)
	}

	for _, owner := range owners {
		fmt.Fprintln(p.w, p.paint(colorCyan, owner))
		for _, id := range byOwner[owner] {
			fmt.Fprintf(p.w, "  %s\n", p.paint(colorYellow, id))
		}
		fmt.Fprintln(p.w)
	}
}

// ModelsByOwner prints models with their creation time and lineage.
func (p *Printer) ModelsByOwner(owner string, models []provider.ModelInfo) {
	if len(models) == 0 {
		p.Warn("No models found for owner: %s", owner)
		return
	}

	fmt.Fprintln(p.w, p.paint(colorGreen, fmt.Sprintf("Models owned by %s:", owner)))
	for _, m := range models {
		fmt.Fprintln(p.w, p.paint(colorCyan, m.ID))
		fmt.Fprintf(p.w, "  Created: %s\n", p.when(m.Created))
		fmt.Fprintf(p.w, "  Root model: %s\n", orNone(m.Root))
		fmt.Fprintf(p.w, "  Parent model: %s\n\n", orNone(m.Parent))
	}
}

// Tally prints one "scheme: count" line per encoding in fixed order.
func (p *Printer) Tally(t tokens.Tally) {
	fmt.Fprintln(p.w, p.paint(colorGreen, "Token counts:"))
	for _, s := range tokens.Schemes() {
		fmt.Fprintf(p.w, "%s %s\n", p.paint(colorCyan, s.String()+":"), p.paint(colorYellow, fmt.Sprint(t[s])))
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
