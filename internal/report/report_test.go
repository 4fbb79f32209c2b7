package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawtsauceTR/flaghunter/internal/files"
	"github.com/hawtsauceTR/flaghunter/internal/matcher"
	"github.com/hawtsauceTR/flaghunter/internal/scanner"
)

var sample = []matcher.Record{
	{Flag: "CTF{one}", Source: "File: a.txt", Timestamp: "2024-01-02 03:04:05"},
	{Flag: "HTB{<two>}", Source: "URL: http://x (body)", Timestamp: "2024-01-02 03:04:06"},
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sample[:1]))

	want := "FlagHunter Results\n" +
		"==================\n\n" +
		"Flag: CTF{one}\n" +
		"Source: File: a.txt\n" +
		"Timestamp: 2024-01-02 03:04:05\n" +
		strings.Repeat("-", 50) + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample[:1]))
	assert.JSONEq(t, `[{"flag":"CTF{one}","source":"File: a.txt","timestamp":"2024-01-02 03:04:05"}]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWriteHTMLEscapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sample))

	out := buf.String()
	assert.Contains(t, out, "<td>1</td>")
	assert.Contains(t, out, "<td>2</td>")
	assert.Contains(t, out, "HTB{&lt;two&gt;}")
	assert.NotContains(t, out, "HTB{<two>}")
}

func TestSavePicksFormatByExtension(t *testing.T) {
	fs := files.New(memfs.New())

	require.NoError(t, Save(fs, "out/report.txt", sample))
	require.NoError(t, Save(fs, "out/report.json", sample))
	require.NoError(t, Save(fs, "out/report.html", sample))

	text, err := fs.ReadText("out/report.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "FlagHunter Results\n"))
	assert.Equal(t, 2, strings.Count(text, strings.Repeat("-", 50)))

	js, err := fs.ReadText("out/report.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(js, "["))

	html, err := fs.ReadText("out/report.html")
	require.NoError(t, err)
	assert.Contains(t, html, "<!DOCTYPE html>")
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	PrintSummary(&buf, sample, scanner.Stats{URLs: 3, Files: 1}, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "Total flags found: 2")
	assert.Contains(t, out, "URLs fetched: 3  Files read: 1  Errors: 0  Duration: 1.5s")
	assert.Contains(t, out, "1. CTF{one}")
	assert.Contains(t, out, "   Source: URL: http://x (body)")
	assert.Contains(t, out, "   Time: 2024-01-02 03:04:06")
}

func TestPrintSummaryEmpty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	PrintSummary(&buf, nil, scanner.Stats{}, 0)

	assert.Contains(t, buf.String(), "Total flags found: 0")
	assert.NotContains(t, buf.String(), "Found Flags:")
}
