// Package scanner drives the flag matcher over URLs, files, directory
// trees and network banners, and aggregates what it finds.
package scanner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/remeh/sizedwaitgroup"
	"github.com/sirupsen/logrus"

	"github.com/hawtsauceTR/flaghunter/internal/config"
	"github.com/hawtsauceTR/flaghunter/internal/errs"
	"github.com/hawtsauceTR/flaghunter/internal/files"
	"github.com/hawtsauceTR/flaghunter/internal/matcher"
	"github.com/hawtsauceTR/flaghunter/internal/transport"
)

// DefaultThreads bounds the URL worker pool when no size is given.
const DefaultThreads = 10

// Fetcher retrieves a URL. *transport.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*transport.Response, error)
}

// Tracker is told about progress through a URL pool.
type Tracker interface {
	Start(total int)
	Done(url string)
	Finish()
}

// Stats counts the work done during a run.
type Stats struct {
	URLs   int64
	Files  int64
	Errors int64
}

// Dispatcher feeds fetched content into a Matcher. The visited-URL set and
// the matcher history are per Dispatcher, so a Dispatcher is one run.
type Dispatcher struct {
	matcher *matcher.Matcher
	fetcher Fetcher
	fs      *files.FS
	cfg     *config.Config
	log     logrus.FieldLogger
	tracker Tracker

	visitedMu sync.Mutex
	visited   map[string]struct{}

	urls   atomic.Int64
	nfiles atomic.Int64
	errors atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithTracker reports URL pool progress to t.
func WithTracker(t Tracker) Option {
	return func(d *Dispatcher) {
		d.tracker = t
	}
}

// New returns a Dispatcher.
func New(m *matcher.Matcher, fetcher Fetcher, fs *files.FS, cfg *config.Config, opts ...Option) *Dispatcher {
	if cfg == nil {
		cfg = config.Default()
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	d := &Dispatcher{
		matcher: m,
		fetcher: fetcher,
		fs:      fs,
		cfg:     cfg,
		log:     discard,
		visited: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Matcher returns the matcher the dispatcher feeds.
func (d *Dispatcher) Matcher() *matcher.Matcher {
	return d.matcher
}

// Stats returns a snapshot of the run counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		URLs:   d.urls.Load(),
		Files:  d.nfiles.Load(),
		Errors: d.errors.Load(),
	}
}

// markVisited records url and reports whether it was new.
func (d *Dispatcher) markVisited(url string) bool {
	d.visitedMu.Lock()
	defer d.visitedMu.Unlock()
	if _, ok := d.visited[url]; ok {
		return false
	}
	d.visited[url] = struct{}{}
	return true
}

func (d *Dispatcher) search(text, source string) []matcher.Record {
	found := d.matcher.Search(text, source)
	for _, rec := range found {
		d.log.WithField("source", rec.Source).Debugf("[FOUND] %s", rec.Flag)
	}
	return found
}

func (d *Dispatcher) fail(err error) {
	d.errors.Add(1)
	d.log.WithField("code", errs.CodeOf(err)).Debugf("[ERROR] %v", err)
}

// ScanURL fetches url once per run and searches its body, headers and
// cookies. A URL already scanned in this run returns nothing without a
// fetch. Fetch failures are logged and yield no flags.
func (d *Dispatcher) ScanURL(ctx context.Context, url string) []matcher.Record {
	found, _ := d.scanURL(ctx, url)
	return found
}

func (d *Dispatcher) scanURL(ctx context.Context, url string) ([]matcher.Record, *transport.Response) {
	if !d.markVisited(url) {
		return nil, nil
	}

	d.log.Debugf("[INFO] Scanning: %s", url)
	d.urls.Add(1)
	resp, err := d.fetcher.Get(ctx, url)
	if err != nil {
		d.fail(fmt.Errorf("failed to scan %s: %w", url, err))
		return nil, nil
	}

	var found []matcher.Record
	found = append(found, d.search(resp.Body, fmt.Sprintf("URL: %s (body)", url))...)
	found = append(found, d.search(resp.HeaderText(), fmt.Sprintf("URL: %s (headers)", url))...)
	found = append(found, d.search(resp.CookieText(), fmt.Sprintf("URL: %s (cookies)", url))...)
	return found, resp
}

// ScanFile searches the whole content of path. Read failures are logged
// and yield no flags.
func (d *Dispatcher) ScanFile(path string) []matcher.Record {
	d.log.Debugf("[INFO] Scanning file: %s", path)
	d.nfiles.Add(1)
	text, err := d.fs.ReadText(path)
	if err != nil {
		d.fail(fmt.Errorf("failed to scan %s: %w", path, err))
		return nil
	}
	return d.search(text, "File: "+path)
}

// ScanDirectory scans every file under dir whose name ends with one of the
// configured extensions. With recursive unset only dir itself is listed.
func (d *Dispatcher) ScanDirectory(dir string, recursive bool) []matcher.Record {
	if !d.fs.IsDir(dir) {
		d.errors.Add(1)
		entry := d.log.WithField("code", errs.CodeDirectoryNotFound)
		if d.fs.Exists(dir) {
			entry.Errorf("Not a directory: %s", dir)
		} else {
			entry.Errorf("Directory not found: %s", dir)
		}
		return nil
	}

	entries, err := d.fs.ListEntries(dir, recursive)
	if err != nil {
		d.fail(err)
	}

	var found []matcher.Record
	for _, path := range entries {
		if !d.shouldScan(path) {
			continue
		}
		found = append(found, d.ScanFile(path)...)
	}
	return found
}

// shouldScan applies the extension filter, the text sniff fallback and the
// size cap.
func (d *Dispatcher) shouldScan(path string) bool {
	if !files.HasExtension(path, d.cfg.FileExtensions) {
		if !d.cfg.SniffText || !d.fs.IsText(path) {
			return false
		}
	}
	if max := d.cfg.MaxFileSize; max > 0 && d.fs.FileSize(path) > max {
		d.log.Debugf("[INFO] Skipping %s: larger than %d bytes", path, max)
		return false
	}
	return true
}

// LoadURLList reads the newline separated URLs in path. Blank lines and
// lines starting with # are skipped; entries without a scheme get http://.
func (d *Dispatcher) LoadURLList(path string) ([]string, error) {
	if !d.fs.Exists(path) {
		return nil, errs.New(errs.CodeInputFileNotFound, "read url list", path, nil)
	}
	lines, err := d.fs.ReadLines(path)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, NormalizeURL(line))
	}
	return urls, nil
}

// NormalizeURL prefixes http:// when target carries no scheme. The scheme
// check ignores case.
func NormalizeURL(target string) string {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return target
	}
	return "http://" + target
}

// ScanURLsFromFile scans every URL listed in path across at most threads
// concurrent workers. A missing list is logged and yields no flags.
func (d *Dispatcher) ScanURLsFromFile(ctx context.Context, path string, threads int) []matcher.Record {
	urls, err := d.LoadURLList(path)
	if err != nil {
		d.errors.Add(1)
		entry := d.log.WithField("code", errs.CodeOf(err))
		if errs.CodeOf(err) == errs.CodeInputFileNotFound {
			entry.Errorf("File not found: %s", path)
		} else {
			entry.Errorf("Failed to read %s: %v", path, err)
		}
		return nil
	}
	return d.ScanURLs(ctx, urls, threads)
}

// ScanURLs runs ScanURL for each url on a pool of at most threads workers.
// Records are collected in the order workers finish, not submission order.
func (d *Dispatcher) ScanURLs(ctx context.Context, urls []string, threads int) []matcher.Record {
	if threads <= 0 {
		threads = DefaultThreads
	}
	if d.tracker != nil {
		d.tracker.Start(len(urls))
		defer d.tracker.Finish()
	}

	results := make(chan []matcher.Record, threads)
	swg := sizedwaitgroup.New(threads)

	go func() {
		for _, u := range urls {
			swg.Add()
			go func(u string) {
				defer swg.Done()
				found := d.ScanURL(ctx, u)
				if d.tracker != nil {
					d.tracker.Done(u)
				}
				results <- found
			}(u)
		}
		swg.Wait()
		close(results)
	}()

	var found []matcher.Record
	for batch := range results {
		found = append(found, batch...)
	}
	return found
}
