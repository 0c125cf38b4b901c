package report

import (
	"github.com/dtnitsch/wordcount-report/models"
	"github.com/dtnitsch/wordcount-report/pkg/histogram"
)

// Result is the outcome of one report run. Bucket is nil when the data
// could not be fetched.
type Result struct {
	Config models.ReportConfig
	Bucket *histogram.Bucket
}

// Failed reports whether the run produced no bucket.
func (r Result) Failed() bool {
	return r.Bucket == nil
}

// ReportOutput is the structured output for a single report.
type ReportOutput struct {
	Key     string            `json:"key" yaml:"key"`
	Heading string            `json:"heading" yaml:"heading"`
	URL     string            `json:"url" yaml:"url"`
	Slab    int               `json:"slab" yaml:"slab"`
	Range   int               `json:"range" yaml:"range"`
	Status  string            `json:"status" yaml:"status"`
	Items   int               `json:"items" yaml:"items"`
	Bucket  *histogram.Bucket `json:"bucket,omitempty" yaml:"bucket,omitempty"`
}

// FinalOutput is the structured output for the entire run.
type FinalOutput struct {
	Status  string         `json:"status" yaml:"status"`
	Reports []ReportOutput `json:"reports" yaml:"reports"`
	Stats   Stats          `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalReports     int     `json:"total_reports" yaml:"total_reports"`
	Successful       int     `json:"successful" yaml:"successful"`
	Failed           int     `json:"failed" yaml:"failed"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}

// BuildOutput summarizes results in the order they were produced.
func BuildOutput(results []Result, seconds float64) *FinalOutput {
	out := &FinalOutput{
		Reports: make([]ReportOutput, 0, len(results)),
		Stats: Stats{
			TotalReports:     len(results),
			TotalTimeSeconds: seconds,
		},
	}

	for _, r := range results {
		ro := ReportOutput{
			Key:     r.Config.Key,
			Heading: r.Config.Heading,
			URL:     r.Config.URL,
			Slab:    r.Config.Slab,
			Range:   r.Config.Range,
			Bucket:  r.Bucket,
		}
		if r.Failed() {
			ro.Status = "failed"
			out.Stats.Failed++
		} else {
			ro.Status = "success"
			ro.Items = r.Bucket.Total()
			out.Stats.Successful++
		}
		out.Reports = append(out.Reports, ro)
	}

	switch {
	case out.Stats.Failed == 0:
		out.Status = "success"
	case out.Stats.Successful == 0:
		out.Status = "failed"
	default:
		out.Status = "partial_failure"
	}
	return out
}
