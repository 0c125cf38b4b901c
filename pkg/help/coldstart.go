package help

const ColdstartYAML = `# wcr Quick Start

reports:
  posts: "Blog posts, slab 500 over 0-5000"
  pages: "Static pages, slab 100 over 0-2000"

formats:
  terminal: "Bar charts in the terminal (default)"
  html: "Standalone page with Google Charts and a style toggle"
  xlsx: "Workbook with one sheet and native chart per report"
  json: "Ordered bins for scripting"
  yaml: "Ordered bins for scripting"

text_modes:
  raw: "Count tokens in rendered HTML as delivered (default)"
  text: "Count visible text only"
  article: "Count the main article after readability extraction"

commands:
  basic_report: |
    wcr report

  custom_slabs: |
    wcr report --posts-slab 1000 --pages-slab 200

  classic_html: |
    wcr report --format html --style classic -o report.html

  spreadsheet: |
    wcr report --format xlsx -o report.xlsx

  other_site: |
    WCR_POSTS_URL="https://example.com/wp-json/wp/v2/posts?per_page=100" wcr report

  offline_bucket: |
    wcr bucket --range 2000 --slab 500 100 600 2500 500

  fetch_log: |
    wcr db fetches --limit 10
    wcr db fetch 3

  cached_rerun: |
    wcr report --cache --cache-ttl 1h

  effective_config: |
    wcr config > wcr.yaml

slab_rules:
  - "Slab overrides must sit on the slider: 0 < slab <= max and on a step"
  - "Counts below the first slab land in 0-{slab}"
  - "Counts above range land in {range}-Infinity; a count equal to range lands in {range}-{range+slab}"
  - "Range divided by slab may not exceed 10000 bins"
  - "Exact bin edges follow strict comparisons, so 500 with slab 500 lands in 500-1000"

error_behavior:
  - "Bad flags or config: fail fast before fetching"
  - "A report that fails to fetch is logged once and rendered empty"
  - "Exit codes: 0=at least one report, 1=every report failed or bad input, 2=output error"
`
