package chart

import (
	"fmt"
	"html/template"
	"io"
	"sync"
)

// LoaderURL is the Google Charts loader. A page includes it once no matter
// how many charts it holds.
const LoaderURL = "https://www.gstatic.com/charts/loader.js"

const chartWidth = 1200

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<script type="text/javascript" src="{{.LoaderURL}}"></script>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; background: #fafafa; }
header { background: #3f51b5; color: white; padding: 12px 24px; font-size: 1.25em; }
h1 { text-align: center; font-weight: 400; }
section { max-width: 1240px; margin: 0 auto 32px; padding: 0 20px; }
button { background: #3f51b5; color: white; border: 0; border-radius: 4px; padding: 6px 16px; cursor: pointer; }
</style>
</head>
<body>
<header>{{.Brand}}</header>
<h1>{{.Title}}</h1>
{{range .Charts}}
<section>
<h2>{{.Heading}}</h2>
<button id="{{.ID}}-toggle">Loading...</button>
<div id="{{.ID}}-chart"></div>
</section>
{{end}}
<script type="text/javascript">
var charts = {{.Charts}};
google.charts.load('current', {'packages': ['corechart', 'bar']});
google.charts.setOnLoadCallback(function () {
  charts.forEach(function (c) {
    if (!c.ready) { return; }
    var data = google.visualization.arrayToDataTable(c.rows);
    var btn = document.getElementById(c.id + '-toggle');
    var mount = document.getElementById(c.id + '-chart');
    function drawMaterial() {
      new google.charts.Bar(mount).draw(data, google.charts.Bar.convertOptions(c.material));
      btn.innerText = 'Change to Classic';
      btn.onclick = drawClassic;
    }
    function drawClassic() {
      new google.visualization.ColumnChart(mount).draw(data, c.classic);
      btn.innerText = 'Change to Material';
      btn.onclick = drawMaterial;
    }
    if (c.style === 'classic') { drawClassic(); } else { drawMaterial(); }
  });
});
</script>
</body>
</html>
`

// Library parses the page template on first use and hands every later
// caller the same result.
type Library struct {
	once sync.Once
	tmpl *template.Template
	err  error
}

// EnsureReady returns the parsed template, parsing it at most once.
func (l *Library) EnsureReady() (*template.Template, error) {
	l.once.Do(func() {
		l.tmpl, l.err = template.New("page").Parse(pageTemplate)
	})
	return l.tmpl, l.err
}

var defaultLibrary = &Library{}

// HTMLRenderer writes a standalone page drawing each chart with Google
// Charts, with a button per chart to switch between the two styles.
type HTMLRenderer struct {
	Title   string
	Brand   string
	Library *Library
}

type htmlChart struct {
	ID       string                 `json:"id"`
	Heading  string                 `json:"heading"`
	Ready    bool                   `json:"ready"`
	Style    string                 `json:"style"`
	Rows     [][]interface{}        `json:"rows"`
	Material map[string]interface{} `json:"material"`
	Classic  map[string]interface{} `json:"classic"`
}

type htmlPage struct {
	Title     string
	Brand     string
	LoaderURL string
	Charts    []htmlChart
}

func (r *HTMLRenderer) Render(w io.Writer, charts []*Chart) error {
	lib := r.Library
	if lib == nil {
		lib = defaultLibrary
	}
	tmpl, err := lib.EnsureReady()
	if err != nil {
		return fmt.Errorf("chart template unavailable: %w", err)
	}

	page := htmlPage{
		Title:     r.Title,
		Brand:     r.Brand,
		LoaderURL: LoaderURL,
		Charts:    make([]htmlChart, 0, len(charts)),
	}
	if page.Title == "" {
		page.Title = "Words Count Report"
	}
	for i, c := range charts {
		page.Charts = append(page.Charts, htmlChart{
			ID:       fmt.Sprintf("chart-%d", i),
			Heading:  c.Heading,
			Ready:    c.Ready(),
			Style:    c.Style.String(),
			Rows:     c.Rows(),
			Material: materialOptions(c),
			Classic:  classicOptions(c),
		})
	}

	if err := tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

func materialOptions(c *Chart) map[string]interface{} {
	return map[string]interface{}{
		"width": chartWidth,
		"chart": map[string]interface{}{
			"title":    c.Title,
			"subtitle": c.Subtitle,
		},
		"series": map[string]interface{}{
			"0": map[string]interface{}{"axis": "count"},
		},
		"axes": map[string]interface{}{
			"y": map[string]interface{}{
				"count": map[string]interface{}{"label": AxisTitle},
			},
		},
	}
}

func classicOptions(c *Chart) map[string]interface{} {
	return map[string]interface{}{
		"width": chartWidth,
		"title": c.Title,
		"series": map[string]interface{}{
			"0": map[string]interface{}{"targetAxisIndex": 0},
		},
		"vAxes": map[string]interface{}{
			"0": map[string]interface{}{"title": AxisTitle},
		},
	}
}
