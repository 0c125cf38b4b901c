// Package models defines the report configuration shared by every command.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/wordcount-report/internal/common"
	"github.com/dtnitsch/wordcount-report/pkg/histogram"
)

const defaultSubtitle = "This chart generate based on content's word counts"

// ErrSlabOutOfBounds is returned by WithSlab for values the slider cannot produce.
var ErrSlabOutOfBounds = errors.New("slab outside slider bounds")

// SlabBounds are the slider limits for a report's slab.
type SlabBounds struct {
	Min  int `yaml:"min" toml:"min" validate:"gte=0"`
	Max  int `yaml:"max" toml:"max" validate:"gtefield=Min"`
	Step int `yaml:"step" toml:"step" validate:"gt=0"`
}

// Contains reports whether v is a value the slider can be set to.
func (b SlabBounds) Contains(v int) bool {
	if b.Step <= 0 || v < b.Min || v > b.Max {
		return false
	}
	return (v-b.Min)%b.Step == 0
}

// ReportConfig describes one histogram: where the items come from and how
// their word counts are binned.
type ReportConfig struct {
	Key      string     `yaml:"key" toml:"key" validate:"required,alphanum"`
	Heading  string     `yaml:"heading" toml:"heading" validate:"required"`
	Title    string     `yaml:"title" toml:"title"`
	Subtitle string     `yaml:"subtitle" toml:"subtitle"`
	Slab     int        `yaml:"slab" toml:"slab" validate:"gt=0"`
	Range    int        `yaml:"range" toml:"range" validate:"gt=0"`
	URL      string     `yaml:"url" toml:"url" validate:"required,url"`
	Bounds   SlabBounds `yaml:"bounds" toml:"bounds"`
}

// WithSlab returns a copy of r using slab v. The value must be positive and
// reachable on the report's slider.
func (r ReportConfig) WithSlab(v int) (ReportConfig, error) {
	if v <= 0 {
		return r, fmt.Errorf("%s: slab must be positive, got %d", r.Key, v)
	}
	if !r.Bounds.Contains(v) {
		return r, fmt.Errorf("%s: %w: %d not in [%d, %d] step %d",
			r.Key, ErrSlabOutOfBounds, v, r.Bounds.Min, r.Bounds.Max, r.Bounds.Step)
	}
	if err := histogram.CheckBins(r.Range, v); err != nil {
		return r, fmt.Errorf("%s: %w", r.Key, err)
	}
	r.Slab = v
	return r, nil
}

// Duration is a time.Duration that reads and writes as "15m0s" in YAML.
type Duration time.Duration

// MarshalYAML renders the duration in Go notation.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts Go duration strings such as "30s" or "15m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if err := d.UnmarshalText([]byte(value.Value)); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

// UnmarshalText lets TOML config files use the same notation.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// FetchSettings controls transport, caching and the fetch log.
type FetchSettings struct {
	// Timeout of zero leaves requests unbounded.
	Timeout Duration `yaml:"timeout" toml:"timeout" validate:"gte=0"`
	// Cache is off unless enabled here or with --cache.
	Cache    bool     `yaml:"cache" toml:"cache"`
	CacheDir string   `yaml:"cache_dir" toml:"cache_dir"`
	CacheTTL Duration `yaml:"cache_ttl" toml:"cache_ttl" validate:"gte=0"`
	// DBPath empty means next to the binary.
	DBPath     string `yaml:"db_path" toml:"db_path"`
	DisableLog bool   `yaml:"disable_log" toml:"disable_log"`
}

// Config is the full runtime configuration.
type Config struct {
	Reports     []ReportConfig `yaml:"reports" toml:"reports" validate:"required,min=1,dive"`
	ContentPath string         `yaml:"content_path" toml:"content_path"`
	TextMode    string         `yaml:"text_mode" toml:"text_mode" validate:"omitempty,oneof=raw text article"`
	Fetch       FetchSettings  `yaml:"fetch" toml:"fetch"`
}

// DefaultConfig returns the posts and pages reports for the VdoCipher blog.
func DefaultConfig() *Config {
	return &Config{
		Reports: []ReportConfig{
			{
				Key:      "posts",
				Heading:  "Posts",
				Title:    "Posts word count",
				Subtitle: defaultSubtitle,
				Slab:     500,
				Range:    5000,
				URL:      "https://www.vdocipher.com/blog/wp-json/wp/v2/posts?per_page=100",
				Bounds:   SlabBounds{Min: 0, Max: 5000, Step: 500},
			},
			{
				Key:      "pages",
				Heading:  "Pages",
				Title:    "Pages word count",
				Subtitle: defaultSubtitle,
				Slab:     100,
				Range:    2000,
				URL:      "https://www.vdocipher.com/blog/wp-json/wp/v2/pages?per_page=100",
				Bounds:   SlabBounds{Min: 0, Max: 2000, Step: 100},
			},
		},
		ContentPath: "$.content.rendered",
		TextMode:    "raw",
		Fetch: FetchSettings{
			CacheTTL: Duration(15 * time.Minute),
		},
	}
}

// LoadConfig reads a YAML file, or TOML when the name ends in .toml, over
// the defaults. A missing file yields the defaults unchanged; a reports list
// in the file replaces the default one.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Report returns the report with the given key.
func (c *Config) Report(key string) (*ReportConfig, bool) {
	for i := range c.Reports {
		if strings.EqualFold(c.Reports[i].Key, key) {
			return &c.Reports[i], true
		}
	}
	return nil, false
}

// Validate cleans up source URLs and fills missing slider bounds, then
// checks struct constraints and bin limits.
func (c *Config) Validate() error {
	for i := range c.Reports {
		r := &c.Reports[i]
		r.URL = common.SanitizeURL(r.URL)
		if r.Bounds == (SlabBounds{}) {
			r.Bounds = defaultBounds(*r)
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Reports))
	for i := range c.Reports {
		r := &c.Reports[i]
		key := strings.ToLower(r.Key)
		if seen[key] {
			return fmt.Errorf("invalid config: duplicate report key %q", r.Key)
		}
		seen[key] = true

		if err := histogram.CheckBins(r.Range, r.Slab); err != nil {
			return fmt.Errorf("invalid config: %s: %w", r.Key, err)
		}

		sanitized, invalid := common.SanitizeAndValidateURLs([]string{r.URL})
		if len(invalid) > 0 {
			return fmt.Errorf("invalid config: %s: malformed URL %q", r.Key, r.URL)
		}
		r.URL = sanitized[0]
	}
	return nil
}

// defaultBounds returns the built-in slider for a known report key, or a
// slider over 0..Range stepping by the configured slab.
func defaultBounds(r ReportConfig) SlabBounds {
	if known, ok := DefaultConfig().Report(r.Key); ok {
		return known.Bounds
	}
	return SlabBounds{Min: 0, Max: r.Range, Step: r.Slab}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
