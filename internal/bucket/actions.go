package bucket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/wordcount-report/pkg/chart"
	"github.com/dtnitsch/wordcount-report/pkg/histogram"
)

// BucketAction bins literal word counts given as arguments, or read from
// stdin when there are none.
func BucketAction(c *cli.Context) error {
	rng := c.Int("range")
	slab := c.Int("slab")
	if rng <= 0 || slab <= 0 {
		return cli.Exit(fmt.Sprintf("Error: --range and --slab must be positive (got %d, %d)", rng, slab), 1)
	}
	if err := histogram.CheckBins(rng, slab); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	var counts []int
	var err error
	if c.NArg() > 0 {
		counts, err = ParseCounts(c.Args().Slice())
	} else {
		counts, err = ReadCounts(c.App.Reader)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	b := histogram.GenerateBucket(rng, slab)
	b.Fill(counts, rng, slab)

	w := c.App.Writer
	switch strings.ToLower(c.String("format")) {
	case "json":
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal bucket: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal bucket: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "", "terminal":
	default:
		return cli.Exit(fmt.Sprintf("Error: unknown format %q (want terminal, json or yaml)", c.String("format")), 1)
	}

	style, err := chart.ParseStyle(c.String("style"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	ch := &chart.Chart{
		Key:     "bucket",
		Heading: fmt.Sprintf("%d counts, range %d, slab %d", len(counts), rng, slab),
		Title:   "Word count distribution",
		Bucket:  b,
		Style:   style,
	}
	return (&chart.TerminalRenderer{}).Render(w, []*chart.Chart{ch})
}

// ParseCounts converts arguments to word counts. Commas also separate values.
func ParseCounts(args []string) ([]int, error) {
	var counts []int
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("invalid word count %q", field)
			}
			if n < 0 {
				return nil, fmt.Errorf("word count cannot be negative: %d", n)
			}
			counts = append(counts, n)
		}
	}
	return counts, nil
}

// ReadCounts reads whitespace or comma separated word counts from r.
func ReadCounts(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var fields []string
	for scanner.Scan() {
		fields = append(fields, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}
	return ParseCounts(fields)
}
