// Package transport is the HTTP side of the scanner: a resty client with
// the browser-like default header set and a response shape the flag
// matcher can read.
package transport

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/hawtsauceTR/flaghunter/internal/errs"
)

// Default header values sent with every request.
const (
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.5"
	DefaultAcceptEncoding = "gzip, deflate"
)

// Response is what a GET produced.
type Response struct {
	URL     string
	Status  int
	Body    string
	Headers http.Header
	Cookies []*http.Cookie
}

// HeaderText renders the headers one "Name: value" line each, sorted by
// name so the text is stable across runs.
func (r *Response) HeaderText() string {
	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		for _, v := range r.Headers[name] {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// CookieText renders the cookies one "name=value" line each.
func (r *Response) CookieText() string {
	var b strings.Builder
	for _, c := range r.Cookies {
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// Client fetches URLs. It is safe for concurrent use once configured.
type Client struct {
	http *resty.Client

	mu     sync.Mutex
	agents []string
	rnd    *rand.Rand
}

// New returns a Client with the given timeout and User-Agent.
func New(timeout time.Duration, userAgent string) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	rc := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeaders(map[string]string{
			"Accept":          DefaultAccept,
			"Accept-Language": DefaultAcceptLanguage,
			"Accept-Encoding": DefaultAcceptEncoding,
			"Connection":      "keep-alive",
		})

	return &Client{
		http: rc,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.SetTimeout(timeout)
}

// SetUserAgent changes the default User-Agent and disables rotation.
func (c *Client) SetUserAgent(ua string) {
	c.mu.Lock()
	c.agents = nil
	c.mu.Unlock()
	c.http.SetHeader("User-Agent", ua)
}

// RotateUserAgents makes every request pick a random agent from agents.
func (c *Client) RotateUserAgents(agents []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents = append([]string(nil), agents...)
}

func (c *Client) pickAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.agents) == 0 {
		return ""
	}
	return c.agents[c.rnd.Intn(len(c.agents))]
}

// Get performs a GET request. Any status code is a successful fetch; only
// transport failures (DNS, connect, timeout) return an error.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req := c.http.R().SetContext(ctx)
	if ua := c.pickAgent(); ua != "" {
		req.SetHeader("User-Agent", ua)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, errs.New(errs.CodeFetch, "get", url, err)
	}

	body := resp.Body()
	if strings.EqualFold(strings.TrimSpace(resp.Header().Get("Content-Encoding")), "deflate") {
		body = inflate(body)
	}

	return &Response{
		URL:     url,
		Status:  resp.StatusCode(),
		Body:    strings.TrimSpace(string(body)),
		Headers: resp.Header(),
		Cookies: resp.Cookies(),
	}, nil
}

// inflate decodes a deflate body. resty only handles gzip. Servers send
// either zlib-wrapped or raw flate data under this encoding, so both are
// tried; data that is neither comes back unchanged.
func inflate(data []byte) []byte {
	if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		defer zr.Close()
		if out, err := io.ReadAll(zr); err == nil {
			return out
		}
	}
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	if out, err := io.ReadAll(fr); err == nil {
		return out
	}
	return data
}
