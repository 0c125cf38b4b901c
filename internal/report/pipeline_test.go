package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/wordcount-report/models"
	"github.com/dtnitsch/wordcount-report/pkg/fetcher"
	"github.com/dtnitsch/wordcount-report/pkg/histogram"
	"github.com/dtnitsch/wordcount-report/pkg/source"
	"github.com/dtnitsch/wordcount-report/pkg/wordcount"
)

// itemsPayload builds a content API response whose items have the given
// word counts.
func itemsPayload(t *testing.T, counts ...int) []byte {
	t.Helper()
	items := make([]map[string]interface{}, len(counts))
	for i, n := range counts {
		items[i] = map[string]interface{}{
			"id":      i + 1,
			"content": map[string]interface{}{"rendered": strings.TrimSpace(strings.Repeat("word ", n))},
		}
	}
	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return data
}

type contentAPI struct {
	*httptest.Server
	hits atomic.Int32
}

func newContentAPI(t *testing.T, routes map[string][]byte) *contentAPI {
	t.Helper()
	api := &contentAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(api.Close)
	return api
}

func newTestSource(t *testing.T) *source.Source {
	t.Helper()
	src, err := source.New(fetcher.NewFetcher(5*time.Second), "")
	if err != nil {
		t.Fatalf("source.New() error = %v", err)
	}
	return src
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func testReport(url string) models.ReportConfig {
	return models.ReportConfig{
		Key:     "posts",
		Heading: "Posts",
		Title:   "Posts word count",
		Slab:    500,
		Range:   2000,
		URL:     url,
		Bounds:  models.SlabBounds{Min: 0, Max: 2000, Step: 500},
	}
}

func TestFetchAndBucket(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/posts": itemsPayload(t, 100, 600, 2500, 500),
	})

	var logs bytes.Buffer
	b := FetchAndBucket(context.Background(), bufferLogger(&logs), newTestSource(t), testReport(api.URL+"/posts"), wordcount.TextModeRaw)
	if b == nil {
		t.Fatalf("FetchAndBucket() = nil, logs:\n%s", logs.String())
	}

	want := []histogram.Entry{
		{Label: "0-500", Count: 1},
		{Label: "500-1000", Count: 2},
		{Label: "1000-1500", Count: 0},
		{Label: "1500-2000", Count: 0},
		{Label: "2000-Infinity", Count: 1},
	}
	got := b.Entries()
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if b.Total() != 4 {
		t.Errorf("Total() = %d, want 4", b.Total())
	}
}

func TestFetchAndBucket_Failures(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/empty":  []byte(`[]`),
		"/object": []byte(`{"code":"rest_no_route"}`),
	})

	tests := []struct {
		name string
		path string
	}{
		{name: "not found", path: "/missing"},
		{name: "empty list", path: "/empty"},
		{name: "not a list", path: "/object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			b := FetchAndBucket(context.Background(), bufferLogger(&logs), newTestSource(t), testReport(api.URL+tt.path), wordcount.TextModeRaw)
			if b != nil {
				t.Fatalf("FetchAndBucket() = %v, want nil", b.Entries())
			}
			if n := strings.Count(logs.String(), `"level":"ERROR"`); n != 1 {
				t.Errorf("logged %d errors, want exactly 1:\n%s", n, logs.String())
			}
		})
	}
}

type panicSource struct{}

func (panicSource) Items(context.Context, string, string) ([]source.Item, error) {
	panic("boom")
}

func TestFetchAndBucket_Panic(t *testing.T) {
	var logs bytes.Buffer
	b := FetchAndBucket(context.Background(), bufferLogger(&logs), panicSource{}, testReport("https://example.com/posts"), wordcount.TextModeRaw)
	if b != nil {
		t.Error("FetchAndBucket() should return nil after a panic")
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Errorf("panic not logged:\n%s", logs.String())
	}
}

// slowSource answers in reverse config order to show Generate keeps order.
type slowSource struct {
	delays map[string]time.Duration
}

func (s slowSource) Items(_ context.Context, report, _ string) ([]source.Item, error) {
	time.Sleep(s.delays[report])
	if report == "broken" {
		return nil, errors.New("unreachable")
	}
	return []source.Item{{ID: report, Content: "one two three"}}, nil
}

func TestGenerate_Order(t *testing.T) {
	configs := []models.ReportConfig{
		{Key: "first", Slab: 10, Range: 100},
		{Key: "broken", Slab: 10, Range: 100},
		{Key: "last", Slab: 10, Range: 100},
	}
	src := slowSource{delays: map[string]time.Duration{"first": 30 * time.Millisecond, "broken": 10 * time.Millisecond}}

	var logs bytes.Buffer
	results := Generate(context.Background(), bufferLogger(&logs), src, configs, wordcount.TextModeRaw)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Config.Key != configs[i].Key {
			t.Errorf("result %d key = %s, want %s", i, r.Config.Key, configs[i].Key)
		}
	}
	if results[0].Failed() || !results[1].Failed() || results[2].Failed() {
		t.Errorf("failed flags = %v %v %v, want false true false", results[0].Failed(), results[1].Failed(), results[2].Failed())
	}
	if n, _ := results[2].Bucket.Count("0-10"); n != 1 {
		t.Errorf("last bucket 0-10 = %d, want 1", n)
	}
}

func TestBuildOutput(t *testing.T) {
	ok := Result{Config: models.ReportConfig{Key: "posts"}, Bucket: histogram.GenerateBucket(10, 5)}
	ok.Bucket.Increment("0-5")
	failed := Result{Config: models.ReportConfig{Key: "pages"}}

	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{name: "all good", results: []Result{ok}, want: "success"},
		{name: "mixed", results: []Result{ok, failed}, want: "partial_failure"},
		{name: "all failed", results: []Result{failed, failed}, want: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildOutput(tt.results, 0.5)
			if out.Status != tt.want {
				t.Errorf("Status = %s, want %s", out.Status, tt.want)
			}
			if out.Stats.TotalReports != len(tt.results) {
				t.Errorf("TotalReports = %d", out.Stats.TotalReports)
			}
		})
	}

	out := BuildOutput([]Result{ok}, 0)
	if out.Reports[0].Items != 1 {
		t.Errorf("Items = %d, want 1", out.Reports[0].Items)
	}
}

func writeTestConfig(t *testing.T, postsURL, pagesURL string) string {
	t.Helper()
	content := fmt.Sprintf(`
reports:
  - key: posts
    heading: Posts
    title: Posts word count
    slab: 500
    range: 2000
    url: %s
    bounds: {min: 0, max: 2000, step: 500}
  - key: pages
    heading: Pages
    title: Pages word count
    slab: 100
    range: 2000
    url: %s
    bounds: {min: 0, max: 2000, step: 100}
`, postsURL, pagesURL)
	path := filepath.Join(t.TempDir(), "wcr.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := &cli.App{
		Name:           "wcr",
		Writer:         &stdout,
		ErrWriter:      &stderr,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{Name: "report", Flags: Flags(), Action: ReportAction},
			{Name: "config", Flags: ConfigFlags(), Action: ConfigAction},
		},
	}
	err := app.Run(append([]string{"wcr"}, args...))
	return stdout.String(), stderr.String(), err
}

type jsonOutput struct {
	Status  string `json:"status"`
	Reports []struct {
		Key    string            `json:"key"`
		Slab   int               `json:"slab"`
		Status string            `json:"status"`
		Bucket []histogram.Entry `json:"bucket"`
	} `json:"reports"`
}

func TestReportAction_JSON(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/posts": itemsPayload(t, 100, 600, 2500, 500),
	})
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")

	stdout, stderr, err := runApp(t, "report", "--config", cfgPath, "--format", "json", "--no-cache", "--no-log")
	if err != nil {
		t.Fatalf("report error = %v\nstderr:\n%s", err, stderr)
	}

	var out jsonOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, stdout)
	}
	if out.Status != "partial_failure" {
		t.Errorf("status = %s, want partial_failure", out.Status)
	}
	if len(out.Reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(out.Reports))
	}

	posts := out.Reports[0]
	if posts.Status != "success" || len(posts.Bucket) != 5 {
		t.Fatalf("posts = %+v", posts)
	}
	if posts.Bucket[1] != (histogram.Entry{Label: "500-1000", Count: 2}) {
		t.Errorf("posts 500-1000 = %+v", posts.Bucket[1])
	}

	pages := out.Reports[1]
	if pages.Status != "failed" || pages.Bucket != nil {
		t.Errorf("pages = %+v, want failed with no bucket", pages)
	}
	if n := strings.Count(stderr, `"level":"ERROR"`); n != 1 {
		t.Errorf("logged %d errors, want 1:\n%s", n, stderr)
	}
}

func TestReportAction_SlabOverride(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/posts": itemsPayload(t, 100, 600, 2500, 500),
		"/pages": itemsPayload(t, 50),
	})
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")

	stdout, stderr, err := runApp(t, "report", "--config", cfgPath, "--format", "json", "--no-cache", "--no-log", "--posts-slab", "1000")
	if err != nil {
		t.Fatalf("report error = %v\nstderr:\n%s", err, stderr)
	}

	var out jsonOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	posts := out.Reports[0]
	if posts.Slab != 1000 {
		t.Errorf("slab = %d, want 1000", posts.Slab)
	}
	want := []histogram.Entry{
		{Label: "0-1000", Count: 3},
		{Label: "1000-2000", Count: 0},
		{Label: "2000-Infinity", Count: 1},
	}
	if len(posts.Bucket) != len(want) {
		t.Fatalf("bucket = %+v, want %+v", posts.Bucket, want)
	}
	for i := range want {
		if posts.Bucket[i] != want[i] {
			t.Errorf("bucket[%d] = %+v, want %+v", i, posts.Bucket[i], want[i])
		}
	}
	if out.Status != "success" {
		t.Errorf("status = %s, want success", out.Status)
	}
}

func TestReportAction_SlabOutOfBounds(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{"/posts": itemsPayload(t, 10)})
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")

	for _, args := range [][]string{
		{"--posts-slab", "750"},
		{"--posts-slab", "0"},
		{"--pages-slab", "2100"},
	} {
		t.Run(strings.Join(args, "="), func(t *testing.T) {
			full := append([]string{"report", "--config", cfgPath, "--no-cache", "--no-log"}, args...)
			_, _, err := runApp(t, full...)

			var exitErr cli.ExitCoder
			if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
				t.Fatalf("error = %v, want exit code 1", err)
			}
		})
	}
	if hits := api.hits.Load(); hits != 0 {
		t.Errorf("server hit %d times, want 0", hits)
	}
}

func TestReportAction_AllFailed(t *testing.T) {
	api := newContentAPI(t, nil)
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")

	stdout, _, err := runApp(t, "report", "--config", cfgPath, "--no-cache", "--no-log", "--quiet")

	var exitErr cli.ExitCoder
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
	if strings.Count(stdout, "(no data)") != 2 {
		t.Errorf("terminal output should leave both charts empty:\n%s", stdout)
	}
}

func TestReportAction_HTMLFile(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/posts": itemsPayload(t, 100, 600),
		"/pages": itemsPayload(t, 50),
	})
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")
	outPath := filepath.Join(t.TempDir(), "report.html")

	_, stderr, err := runApp(t, "report", "--config", cfgPath, "--no-cache", "--no-log", "--format", "html", "--style", "classic", "-o", outPath)
	if err != nil {
		t.Fatalf("report error = %v\nstderr:\n%s", err, stderr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if n := strings.Count(string(data), "https://www.gstatic.com/charts/loader.js"); n != 1 {
		t.Errorf("loader included %d times, want 1", n)
	}
	if !strings.Contains(string(data), `"style":"classic"`) {
		t.Error("charts should start in classic style")
	}
}

func TestReportAction_CacheAndLog(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/posts": itemsPayload(t, 100),
		"/pages": itemsPayload(t, 50),
	})
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")
	dir := t.TempDir()
	args := []string{"report", "--config", cfgPath, "--format", "yaml", "--quiet", "--cache",
		"--cache-dir", filepath.Join(dir, "cache"), "--db", filepath.Join(dir, "wcr.db")}

	for i := 0; i < 2; i++ {
		if _, stderr, err := runApp(t, args...); err != nil {
			t.Fatalf("run %d error = %v\nstderr:\n%s", i, err, stderr)
		}
	}
	if hits := api.hits.Load(); hits != 2 {
		t.Errorf("server hit %d times, want 2 (second run from cache)", hits)
	}
	if _, err := os.Stat(filepath.Join(dir, "wcr.db")); err != nil {
		t.Errorf("fetch log not created: %v", err)
	}
}

func TestReportAction_CacheOffByDefault(t *testing.T) {
	api := newContentAPI(t, map[string][]byte{
		"/posts": itemsPayload(t, 100),
		"/pages": itemsPayload(t, 50),
	})
	cfgPath := writeTestConfig(t, api.URL+"/posts", api.URL+"/pages")
	cacheDir := filepath.Join(t.TempDir(), "cache")
	args := []string{"report", "--config", cfgPath, "--format", "json", "--quiet", "--no-log",
		"--cache-dir", cacheDir}

	for i := 0; i < 2; i++ {
		if _, stderr, err := runApp(t, args...); err != nil {
			t.Fatalf("run %d error = %v\nstderr:\n%s", i, err, stderr)
		}
	}
	if hits := api.hits.Load(); hits != 4 {
		t.Errorf("server hit %d times, want 4 (every run fetches)", hits)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Errorf("cache dir should not be created without --cache, stat error = %v", err)
	}
}

func TestConfigAction(t *testing.T) {
	stdout, _, err := runApp(t, "config", "--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--posts-url", "https://example.com/wp-json/wp/v2/posts?per_page=10", "--text-mode", "article")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(stdout, "url: https://example.com/wp-json/wp/v2/posts?per_page=10") {
		t.Errorf("posts url override missing:\n%s", stdout)
	}
	if !strings.Contains(stdout, "text_mode: article") {
		t.Errorf("text mode override missing:\n%s", stdout)
	}

	_, _, err = runApp(t, "config", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--text-mode", "pdf")
	if err == nil {
		t.Error("config with an invalid text mode should fail")
	}
}
