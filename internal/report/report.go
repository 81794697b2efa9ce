package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"sort"
	"text/template"
	"time"

	"github.com/FranksOps/ranchwatch/internal/storage"
)

const dateLayout = "01/02/2006"

// Summary aggregates a set of findings for the operator.
type Summary struct {
	TotalFindings int
	Events        int            // distinct detection events (shared FoundAt)
	Dates         []string       // distinct dates, chronological
	ByMonth       map[string]int // "2006-01" -> findings
	ByNights      map[int]int
	FirstFound    time.Time
	LastFound     time.Time
	Span          time.Duration
}

// GenerateSummary processes findings in any order. Dates that do not parse as
// MM/DD/YYYY are counted but sorted last and grouped under "unknown".
func GenerateSummary(findings []*storage.Finding) Summary {
	s := Summary{
		Dates:    []string{},
		ByMonth:  make(map[string]int),
		ByNights: make(map[int]int),
	}

	if len(findings) == 0 {
		return s
	}

	s.FirstFound = findings[0].FoundAt
	s.LastFound = findings[0].FoundAt

	events := make(map[int64]struct{})
	seen := make(map[string]struct{})

	for _, f := range findings {
		s.TotalFindings++
		s.ByNights[f.Nights]++
		events[f.FoundAt.UnixNano()] = struct{}{}

		if d, err := time.Parse(dateLayout, f.Date); err == nil {
			s.ByMonth[d.Format("2006-01")]++
		} else {
			s.ByMonth["unknown"]++
		}

		if _, ok := seen[f.Date]; !ok {
			seen[f.Date] = struct{}{}
			s.Dates = append(s.Dates, f.Date)
		}

		if f.FoundAt.Before(s.FirstFound) {
			s.FirstFound = f.FoundAt
		}
		if f.FoundAt.After(s.LastFound) {
			s.LastFound = f.FoundAt
		}
	}

	sort.SliceStable(s.Dates, func(i, j int) bool {
		a, errA := time.Parse(dateLayout, s.Dates[i])
		b, errB := time.Parse(dateLayout, s.Dates[j])
		switch {
		case errA != nil && errB != nil:
			return s.Dates[i] < s.Dates[j]
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return a.Before(b)
	})

	s.Events = len(events)
	s.Span = s.LastFound.Sub(s.FirstFound)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Ranchwatch Findings Summary
---------------------------
{{- if .TotalFindings}}
Found:         {{.FirstFound.Format "2006-01-02 15:04:05"}} - {{.LastFound.Format "2006-01-02 15:04:05"}}
Span:          {{.Span}}
{{- end}}
Findings:      {{.TotalFindings}}
Events:        {{.Events}}

Dates:
{{- range .Dates}}
  {{.}}
{{- else}}
  None
{{- end}}

By Month:
{{- range $month, $count := .ByMonth}}
  {{$month}}: {{$count}}
{{- else}}
  None
{{- end}}

By Nights:
{{- range $nights, $count := .ByNights}}
  {{$nights}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: parse text template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Ranchwatch Findings</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Ranchwatch Findings</h1>
  {{- if .TotalFindings}}
  <p><strong>Found:</strong> {{.FirstFound.Format "2006-01-02 15:04:05"}} to {{.LastFound.Format "2006-01-02 15:04:05"}} ({{.Span}})</p>
  {{- end}}

  <div class="stat-card">
    <div>Findings</div>
    <div class="stat-val">{{.TotalFindings}}</div>
  </div>
  <div class="stat-card">
    <div>Events</div>
    <div class="stat-val">{{.Events}}</div>
  </div>
  <div class="stat-card">
    <div>Distinct Dates</div>
    <div class="stat-val">{{len .Dates}}</div>
  </div>

  <h3>Dates</h3>
  <table>
    <tr><th>Date</th></tr>
    {{- range .Dates}}
    <tr><td>{{.}}</td></tr>
    {{- else}}
    <tr><td>None</td></tr>
    {{- end}}
  </table>

  <h3>By Month</h3>
  <table>
    <tr><th>Month</th><th>Findings</th></tr>
    {{- range $month, $count := .ByMonth}}
    <tr><td>{{$month}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: parse html template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}
