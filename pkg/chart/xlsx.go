package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")", "'", "",
)

// XLSXRenderer writes a workbook with one sheet per chart: the label/count
// table in columns A and B and a native chart next to it. Classic becomes a
// column chart, Material a horizontal bar chart.
type XLSXRenderer struct{}

func (r *XLSXRenderer) Render(w io.Writer, charts []*Chart) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	used := make(map[string]bool)
	for _, c := range charts {
		if !c.Ready() {
			continue
		}
		name := uniqueSheetName(sheetName(c), used)

		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeSheet(f, name, c); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Key, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, c *Chart) error {
	rows := c.Rows()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return err
	}

	last := len(rows)
	chartType := excelize.Bar
	if c.Style == Classic {
		chartType = excelize.Col
	}
	title := c.Title
	if c.Style == Material && c.Subtitle != "" {
		title += " - " + c.Subtitle
	}

	return f.AddChart(sheet, "D2", &excelize.Chart{
		Type: chartType,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: title}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: AxisTitle}}},
		Legend: excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{
			Width:  chartWidth / 2,
			Height: 360,
		},
	})
}

func sheetName(c *Chart) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(c.Heading))
	if name == "" {
		name = c.Key
	}
	if name == "" {
		name = "Report"
	}
	return truncate(name, maxSheetName)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
