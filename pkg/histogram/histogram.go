// Package histogram buckets word counts into fixed-width bins.
package histogram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const overflowSuffix = "-Infinity"

// MaxBins caps the number of regular bins a range and slab may produce.
const MaxBins = 10000

// Entry is a single bin of a Bucket.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Bucket is an ordered mapping from bin label to item count.
// Labels keep the order in which GenerateBucket produced them.
type Bucket struct {
	entries []Entry
	index   map[string]int
}

func newBucket() *Bucket {
	return &Bucket{index: make(map[string]int)}
}

// CheckBins rejects a range and slab that would need more than MaxBins bins.
func CheckBins(rng, slab int) error {
	if slab <= 0 {
		return fmt.Errorf("slab must be positive, got %d", slab)
	}
	if rng/slab > MaxBins {
		return fmt.Errorf("range %d with slab %d needs %d bins, limit is %d", rng, slab, rng/slab, MaxBins)
	}
	return nil
}

// GenerateBucket returns a zeroed bucket with one label per slab step up to
// rng, followed by the "{rng}-Infinity" overflow label.
// Callers are expected to pass values accepted by CheckBins.
func GenerateBucket(rng, slab int) *Bucket {
	b := newBucket()
	if slab <= 0 || rng < 0 {
		return b
	}

	// k*slab never exceeds rng, so the edges cannot overflow.
	for k := 1; k <= rng/slab; k++ {
		b.set(rangeLabel((k-1)*slab, k*slab), 0)
	}
	b.set(overflowLabel(rng), 0)

	return b
}

// GenerateKey maps a word count to its bucket label.
// A count equal to slab lands in the second bin and a count equal to rng
// lands in a regular bin; only counts strictly above rng overflow.
func GenerateKey(wordCount, rng, slab int) string {
	if slab <= 0 {
		return overflowLabel(rng)
	}
	if wordCount < slab {
		return rangeLabel(0, slab)
	}
	if wordCount > rng {
		return overflowLabel(rng)
	}
	start := (wordCount / slab) * slab
	return rangeLabel(start, start+slab)
}

func rangeLabel(lo, hi int) string {
	return fmt.Sprintf("%d-%d", lo, hi)
}

func overflowLabel(rng int) string {
	return strconv.Itoa(rng) + overflowSuffix
}

// set writes count for label, appending the label if it is new.
func (b *Bucket) set(label string, count int) {
	if i, ok := b.index[label]; ok {
		b.entries[i].Count = count
		return
	}
	b.index[label] = len(b.entries)
	b.entries = append(b.entries, Entry{Label: label, Count: count})
}

// Increment adds one to label. Labels that GenerateBucket did not produce
// (a range that is not a multiple of slab, or a slab wider than the range)
// are inserted by lower bound, always ahead of the overflow label.
func (b *Bucket) Increment(label string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[label]; ok {
		b.entries[i].Count++
		return
	}
	b.insert(Entry{Label: label, Count: 1})
}

func (b *Bucket) insert(e Entry) {
	lo := lowerBound(e.Label)
	overflow := isOverflow(e.Label)

	pos := len(b.entries)
	for i, existing := range b.entries {
		if overflow {
			break
		}
		if isOverflow(existing.Label) || lowerBound(existing.Label) > lo {
			pos = i
			break
		}
	}

	b.entries = append(b.entries, Entry{})
	copy(b.entries[pos+1:], b.entries[pos:])
	b.entries[pos] = e
	for i := pos; i < len(b.entries); i++ {
		b.index[b.entries[i].Label] = i
	}
}

func isOverflow(label string) bool {
	return strings.HasSuffix(label, overflowSuffix)
}

func lowerBound(label string) int {
	lo, _, _ := strings.Cut(label, "-")
	n, err := strconv.Atoi(lo)
	if err != nil {
		return 0
	}
	return n
}

// Count returns the count stored for label and whether the label exists.
func (b *Bucket) Count(label string) (int, bool) {
	i, ok := b.index[label]
	if !ok {
		return 0, false
	}
	return b.entries[i].Count, true
}

// Labels returns the labels in bucket order.
func (b *Bucket) Labels() []string {
	labels := make([]string, len(b.entries))
	for i, e := range b.entries {
		labels[i] = e.Label
	}
	return labels
}

// Entries returns a copy of the bins in bucket order.
func (b *Bucket) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of bins.
func (b *Bucket) Len() int {
	return len(b.entries)
}

// Total returns the sum of all counts.
func (b *Bucket) Total() int {
	total := 0
	for _, e := range b.entries {
		total += e.Count
	}
	return total
}

// Max returns the largest single count, used to scale bars.
func (b *Bucket) Max() int {
	m := 0
	for _, e := range b.entries {
		if e.Count > m {
			m = e.Count
		}
	}
	return m
}

// Fill increments the bin for every word count in counts.
func (b *Bucket) Fill(counts []int, rng, slab int) {
	for _, c := range counts {
		b.Increment(GenerateKey(c, rng, slab))
	}
}

// MarshalJSON encodes the bucket as an ordered list of entries.
func (b *Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Entries())
}

// MarshalYAML encodes the bucket as an ordered list of entries.
func (b *Bucket) MarshalYAML() (interface{}, error) {
	return b.Entries(), nil
}
