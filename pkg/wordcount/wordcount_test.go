package wordcount

import (
	"strings"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "punctuation only", text: "... --- !!!", want: 0},
		{name: "simple sentence", text: "The quick brown fox.", want: 4},
		{name: "underscores and digits are word chars", text: "x_train 42 v1.2", want: 4},
		{name: "contraction splits", text: "don't stop", want: 3},
		{name: "markup is counted in raw form", text: "<p>Hello world</p>", want: 4},
		{name: "multiple whitespace", text: "  one\n\ttwo   three ", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.text); got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseTextMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TextMode
		wantErr bool
	}{
		{in: "", want: TextModeRaw},
		{in: "raw", want: TextModeRaw},
		{in: " TEXT ", want: TextModeText},
		{in: "article", want: TextModeArticle},
		{in: "markdown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTextMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTextMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTextMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtract_Text(t *testing.T) {
	html := `<p>Hello <strong>brave</strong> world</p>
<script>var ignored = true;</script>
<ul>
<li>one</li>
<li>two</li>
</ul>`

	got := Extract(html, TextModeText)
	if strings.Contains(got, "ignored") {
		t.Errorf("Extract() kept script content: %q", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("Extract() kept markup: %q", got)
	}
	if n := Count(got); n != 5 {
		t.Errorf("Count(Extract()) = %d, want 5 (text %q)", n, got)
	}
}

func TestExtract_RawIsIdentity(t *testing.T) {
	html := "<p>Hello</p>"
	if got := Extract(html, TextModeRaw); got != html {
		t.Errorf("Extract(raw) = %q, want %q", got, html)
	}
}

func TestCountContent_ModesDiffer(t *testing.T) {
	html := `<p class="lead">Hello world</p>`
	raw := CountContent(html, TextModeRaw)
	text := CountContent(html, TextModeText)
	if raw <= text {
		t.Errorf("raw count %d should exceed text count %d", raw, text)
	}
	if text != 2 {
		t.Errorf("text count = %d, want 2", text)
	}
}

func TestCountContent_ArticleNeverEmptyForText(t *testing.T) {
	html := `<p>Short paragraph with six words.</p>`
	if got := CountContent(html, TextModeArticle); got == 0 {
		t.Errorf("CountContent(article) = 0, want a positive count")
	}
}

func TestNormalizeText(t *testing.T) {
	in := "  first line \n\n   second\tline  \n"
	if got := normalizeText(in); got != "first line second\tline" {
		t.Errorf("normalizeText() = %q", got)
	}
}
