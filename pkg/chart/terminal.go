package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const defaultBarWidth = 50

// TerminalRenderer draws bar charts as text. Material draws solid
// horizontal bars with the subtitle; Classic draws '#' bars under an
// axis title.
type TerminalRenderer struct {
	Width int
}

func (r *TerminalRenderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return defaultBarWidth
}

func (r *TerminalRenderer) Render(w io.Writer, charts []*Chart) error {
	for i, c := range charts {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := r.renderOne(w, c); err != nil {
			return fmt.Errorf("failed to render %s: %w", c.Key, err)
		}
	}
	return nil
}

func (r *TerminalRenderer) renderOne(w io.Writer, c *Chart) error {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	if _, err := bold.Fprintln(w, c.Heading); err != nil {
		return err
	}
	if !c.Ready() {
		_, err := dim.Fprintln(w, "  (no data)")
		return err
	}

	labelWidth := 0
	for _, label := range c.Bucket.Labels() {
		if len(label) > labelWidth {
			labelWidth = len(label)
		}
	}

	switch c.Style {
	case Classic:
		return r.renderClassic(w, c, labelWidth)
	default:
		return r.renderMaterial(w, c, labelWidth)
	}
}

func (r *TerminalRenderer) renderMaterial(w io.Writer, c *Chart, labelWidth int) error {
	bar := color.New(color.FgCyan)

	fmt.Fprintf(w, "%s\n", c.Title)
	if c.Subtitle != "" {
		color.New(color.Faint).Fprintf(w, "%s\n", c.Subtitle)
	}
	fmt.Fprintln(w)

	top := c.Bucket.Max()
	for _, e := range c.Bucket.Entries() {
		fmt.Fprintf(w, "  %-*s ", labelWidth, e.Label)
		bar.Fprint(w, strings.Repeat("█", scale(e.Count, top, r.width())))
		if _, err := fmt.Fprintf(w, " %d\n", e.Count); err != nil {
			return err
		}
	}
	return nil
}

func (r *TerminalRenderer) renderClassic(w io.Writer, c *Chart, labelWidth int) error {
	bar := color.New(color.FgBlue)

	fmt.Fprintf(w, "%s\n", c.Title)
	fmt.Fprintf(w, "  %-*s | %s\n", labelWidth, "", AxisTitle)
	fmt.Fprintf(w, "  %s-+-%s\n", strings.Repeat("-", labelWidth), strings.Repeat("-", r.width()))

	top := c.Bucket.Max()
	for _, e := range c.Bucket.Entries() {
		fmt.Fprintf(w, "  %-*s | ", labelWidth, e.Label)
		bar.Fprint(w, strings.Repeat("#", scale(e.Count, top, r.width())))
		if _, err := fmt.Fprintf(w, " (%d)\n", e.Count); err != nil {
			return err
		}
	}
	return nil
}

// scale maps count onto [0, width], keeping any non-zero count visible.
func scale(count, top, width int) int {
	if count <= 0 || top <= 0 {
		return 0
	}
	n := count * width / top
	if n == 0 {
		n = 1
	}
	return n
}
