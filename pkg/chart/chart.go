// Package chart draws word-count histograms in two interchangeable styles.
package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/wordcount-report/models"
	"github.com/dtnitsch/wordcount-report/pkg/histogram"
)

// AxisTitle labels the count axis in every style.
const AxisTitle = "No. of Items"

// Style selects one of the two renderings of the same data.
type Style int

const (
	Material Style = iota
	Classic
)

func (s Style) String() string {
	if s == Classic {
		return "classic"
	}
	return "material"
}

// Toggle returns the other style.
func (s Style) Toggle() Style {
	if s == Classic {
		return Material
	}
	return Classic
}

// ParseStyle converts a flag value. Empty means material.
func ParseStyle(v string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "material":
		return Material, nil
	case "classic":
		return Classic, nil
	}
	return Material, fmt.Errorf("unknown chart style %q (want material or classic)", v)
}

// Chart is one report ready to draw. A nil Bucket means the data never
// arrived; renderers leave its chart area empty.
type Chart struct {
	Key      string
	Heading  string
	Title    string
	Subtitle string
	Bucket   *histogram.Bucket
	Style    Style
}

// New builds a chart for report r.
func New(r models.ReportConfig, b *histogram.Bucket, style Style) *Chart {
	return &Chart{
		Key:      r.Key,
		Heading:  r.Heading,
		Title:    r.Title,
		Subtitle: r.Subtitle,
		Bucket:   b,
		Style:    style,
	}
}

// Toggle switches the chart to its other style and returns the new style.
// The bucket is untouched.
func (c *Chart) Toggle() Style {
	c.Style = c.Style.Toggle()
	return c.Style
}

// Ready reports whether the chart has data to draw.
func (c *Chart) Ready() bool {
	return c.Bucket != nil
}

// Rows returns the label/count table with a header row, the shape chart
// libraries expect.
func (c *Chart) Rows() [][]interface{} {
	rows := [][]interface{}{{"Label", "Count"}}
	if c.Bucket == nil {
		return rows
	}
	for _, e := range c.Bucket.Entries() {
		rows = append(rows, []interface{}{e.Label, e.Count})
	}
	return rows
}

// Renderer writes charts to w.
type Renderer interface {
	Render(w io.Writer, charts []*Chart) error
}
