// Package report renders discovered flags to the console and to files.
package report

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/hawtsauceTR/flaghunter/internal/files"
	"github.com/hawtsauceTR/flaghunter/internal/matcher"
	"github.com/hawtsauceTR/flaghunter/internal/scanner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rule separates records in the text report.
var rule = strings.Repeat("-", 50)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan, color.Bold)
)

// PrintBanner writes the tool banner.
func PrintBanner(w io.Writer) {
	cyan.Fprint(w, `
╔═══════════════════════════════════════╗
║              FlagHunter               ║
║        CTF Flag Discovery Tool        ║
║              Version 1.0              ║
╚═══════════════════════════════════════╝
`)
	fmt.Fprintln(w)
}

// PrintSummary lists every record with its source and capture time,
// followed by the run counters.
func PrintSummary(w io.Writer, records []matcher.Record, stats scanner.Stats, elapsed time.Duration) {
	fmt.Fprintln(w)
	bold.Fprintln(w, "Scan Summary:")
	fmt.Fprintf(w, "Total flags found: %s\n", green.Sprint(len(records)))
	fmt.Fprintf(w, "URLs fetched: %d  Files read: %d  Errors: %d  Duration: %s\n",
		stats.URLs, stats.Files, stats.Errors, elapsed.Round(time.Millisecond))

	if len(records) == 0 {
		return
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "Found Flags:")
	for i, rec := range records {
		fmt.Fprintf(w, "%s %s\n", yellow.Sprintf("%d.", i+1), green.Sprint(rec.Flag))
		fmt.Fprintf(w, "   Source: %s\n", rec.Source)
		fmt.Fprintf(w, "   Time: %s\n\n", rec.Timestamp)
	}
}

// WriteText writes the flat text report.
func WriteText(w io.Writer, records []matcher.Record) error {
	var b strings.Builder
	b.WriteString("FlagHunter Results\n")
	b.WriteString("==================\n\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "Flag: %s\n", rec.Flag)
		fmt.Fprintf(&b, "Source: %s\n", rec.Source)
		fmt.Fprintf(&b, "Timestamp: %s\n", rec.Timestamp)
		b.WriteString(rule)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, records []matcher.Record) error {
	if records == nil {
		records = []matcher.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>FlagHunter Report</title>
	<style>
		body { font-family: monospace; background: #111; color: #eee; padding: 20px; }
		table { border-collapse: collapse; width: 100%; }
		th, td { border-bottom: 1px solid #333; padding: 8px; text-align: left; }
		th { background: #222; }
		.flag { color: #00ff88; font-weight: bold; }
	</style>
</head>
<body>
	<h1>FlagHunter Report</h1>
	<p>Generated {{.Generated}} &middot; {{len .Records}} flag(s)</p>
	<table>
		<tr><th>#</th><th>Flag</th><th>Source</th><th>Timestamp</th></tr>
		{{- range $i, $r := .Records}}
		<tr><td>{{inc $i}}</td><td class="flag">{{$r.Flag}}</td><td>{{$r.Source}}</td><td>{{$r.Timestamp}}</td></tr>
		{{- end}}
	</table>
</body>
</html>
`))

// WriteHTML writes a standalone HTML table of the records.
func WriteHTML(w io.Writer, records []matcher.Record) error {
	return htmlReport.Execute(w, struct {
		Generated string
		Records   []matcher.Record
	}{
		Generated: time.Now().Format(matcher.TimestampLayout),
		Records:   records,
	})
}

// Save writes records to path. The extension picks the format: .json and
// .html get those renderings, anything else the flat text report.
func Save(fs *files.FS, path string, records []matcher.Record) error {
	var render func(io.Writer, []matcher.Record) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		render = WriteJSON
	case ".html", ".htm":
		render = WriteHTML
	default:
		render = WriteText
	}
	return fs.WriteRendered(path, func(w io.Writer) error {
		return render(w, records)
	})
}
