package scanner

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinksSameHostOnly(t *testing.T) {
	html := `<html><head><link href="/style.css"></head><body>
		<a href="page.html">rel</a>
		<a href="/admin/#top">abs</a>
		<a href="http://ctf.test/admin/">dup</a>
		<a href="https://elsewhere.test/x">offsite</a>
		<a href="#frag">frag</a>
	</body></html>`

	got := ExtractLinks(html, "http://ctf.test/dir/")

	assert.Equal(t, []string{
		"http://ctf.test/style.css",
		"http://ctf.test/dir/page.html",
		"http://ctf.test/admin/",
	}, got)
}

func TestScanCommonFiles(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.fetcher.page("http://ctf.test/robots.txt", "Disallow: /secret # CTF{robots}")
	h.fetcher.page("http://ctf.test/version.txt", "v1 HTB{version}")
	notFound := h.fetcher.page("http://ctf.test/readme.txt", "FLAG{not_served}")
	notFound.Status = http.StatusForbidden

	got := h.d.ScanCommonFiles(context.Background(), "http://ctf.test")

	assert.Equal(t, []string{"CTF{robots}", "HTB{version}"}, flagsOf(got))
	assert.Equal(t, "URL: http://ctf.test/robots.txt (common file)", got[0].Source)
	assert.Len(t, h.fetcher.calls, len(CommonFiles))

	again := h.d.ScanURL(context.Background(), "http://ctf.test/robots.txt")
	assert.Empty(t, again)
	assert.Equal(t, 1, h.fetcher.count("http://ctf.test/robots.txt"))
}

func TestCrawlFollowsSameHostLinks(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.fetcher.page("http://ctf.test/", `<a href="/one">1</a><a href="two">2</a><a href="http://other.test/">x</a> CTF{root}`)
	h.fetcher.page("http://ctf.test/one", "HTB{one}")
	h.fetcher.page("http://ctf.test/two", "PICO{two}")

	got := h.d.Crawl(context.Background(), "http://ctf.test/", 2)

	assert.ElementsMatch(t, []string{"CTF{root}", "HTB{one}", "PICO{two}"}, flagsOf(got))
	assert.Equal(t, 0, h.fetcher.count("http://other.test/"))
}

func TestCrawlUnreachableStart(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.fetcher.failing["http://down.test/"] = true

	assert.Empty(t, h.d.Crawl(context.Background(), "http://down.test/", 2))
}
