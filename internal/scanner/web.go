package scanner

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hawtsauceTR/flaghunter/internal/matcher"
)

// CommonFiles are the well-known paths probed by ScanCommonFiles.
var CommonFiles = []string{
	"robots.txt",
	"sitemap.xml",
	".htaccess",
	"config.php",
	"readme.txt",
	"changelog.txt",
	"version.txt",
}

// ScanCommonFiles probes the well-known files next to base and searches
// every one that answers 200. Each probe counts as a visit, so a later
// ScanURL of the same address is skipped.
func (d *Dispatcher) ScanCommonFiles(ctx context.Context, base string) []matcher.Record {
	root, err := url.Parse(base)
	if err != nil {
		d.fail(err)
		return nil
	}

	var found []matcher.Record
	for _, name := range CommonFiles {
		target := root.ResolveReference(&url.URL{Path: name}).String()
		if !d.markVisited(target) {
			continue
		}
		d.urls.Add(1)
		resp, err := d.fetcher.Get(ctx, target)
		if err != nil {
			d.fail(err)
			continue
		}
		if resp.Status != http.StatusOK {
			continue
		}
		found = append(found, d.search(resp.Body, "URL: "+target+" (common file)")...)
	}
	return found
}

// ExtractLinks returns the absolute form of every href in html that stays
// on base's host. Duplicates are dropped; document order is kept.
func ExtractLinks(html, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref)
		if abs.Host != baseURL.Host {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

// Crawl scans start, then every same-host link found in its body on the
// URL pool. It goes one level deep.
func (d *Dispatcher) Crawl(ctx context.Context, start string, threads int) []matcher.Record {
	found, resp := d.scanURL(ctx, start)
	if resp == nil {
		return found
	}
	links := ExtractLinks(resp.Body, start)
	d.log.Debugf("[INFO] %d same-host links on %s", len(links), start)
	return append(found, d.ScanURLs(ctx, links, threads)...)
}
