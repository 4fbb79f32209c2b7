package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/hawtsauceTR/flaghunter/internal/config"
	"github.com/hawtsauceTR/flaghunter/internal/files"
	"github.com/hawtsauceTR/flaghunter/internal/matcher"
	"github.com/hawtsauceTR/flaghunter/internal/report"
	"github.com/hawtsauceTR/flaghunter/internal/scanner"
	"github.com/hawtsauceTR/flaghunter/internal/transport"
)

// Options holds the parsed command line.
type Options struct {
	URL        string
	URLFile    string
	Directory  string
	SingleFile string
	Host       string

	Ports       []int
	Pattern     string
	Threads     int
	Recursive   bool
	Verbose     bool
	Output      string
	Timeout     int
	UserAgent   string
	ConfigPath  string
	CommonFiles bool
	Crawl       bool
	RandomAgent bool
}

// targetFlags are the primary selectors; exactly one must be given.
var targetFlags = []string{"url", "file", "directory", "single-file", "host"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "flaghunter",
		Short: "FlagHunter - CTF Flag Discovery Tool",
		Long: `FlagHunter looks for CTF flag tokens such as CTF{...} in web responses,
local files, directory trees and service banners.`,
		Example: `  flaghunter -u http://target.ctf/ --common-files
  flaghunter -f urls.txt -t 20 -o flags.txt
  flaghunter -d ./challenge -r -v
  flaghunter --single-file dump.bin -p 'MYCTF\{[^}]+\}'
  flaghunter --host 10.10.10.5 --ports 21,22,80`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.URL, "url", "u", "", "Single URL to scan")
	f.StringVarP(&opts.URLFile, "file", "f", "", "File containing URLs to scan")
	f.StringVarP(&opts.Directory, "directory", "d", "", "Directory to scan")
	f.StringVar(&opts.SingleFile, "single-file", "", "Single file to scan")
	f.StringVar(&opts.Host, "host", "", "Host whose service banners to scan")

	f.StringVarP(&opts.Pattern, "pattern", "p", "", "Custom flag pattern (regex)")
	f.IntVarP(&opts.Threads, "threads", "t", scanner.DefaultThreads, "Number of threads")
	f.BoolVarP(&opts.Recursive, "recursive", "r", false, "Recursive directory scan")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")
	f.StringVarP(&opts.Output, "output", "o", "", "Output file for results (.json and .html change the format)")
	f.IntVar(&opts.Timeout, "timeout", 10, "Request timeout in seconds")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom user agent")
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (JSON or YAML)")
	f.IntSliceVar(&opts.Ports, "ports", nil, "Ports to probe with --host")
	f.BoolVar(&opts.CommonFiles, "common-files", false, "Also probe robots.txt and other well-known files next to --url")
	f.BoolVar(&opts.Crawl, "crawl", false, "Also scan same-host links found on the --url page")
	f.BoolVar(&opts.RandomAgent, "random-agent", false, "Rotate through the configured user agents")

	cmd.MarkFlagsMutuallyExclusive(targetFlags...)
	cmd.MarkFlagsOneRequired(targetFlags...)
	return cmd
}

func newLogger(verbose bool) *logrus.Logger {
	logger := &logrus.Logger{
		Out:   os.Stderr,
		Level: logrus.InfoLevel,
		Hooks: make(logrus.LevelHooks),
		Formatter: &prefixed.TextFormatter{
			ForceColors:     true,
			ForceFormatting: true,
			FullTimestamp:   true,
			TimestampFormat: matcher.TimestampLayout,
		},
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func run(cmd *cobra.Command, opts *Options) error {
	log := newLogger(opts.Verbose)
	fs := files.NewOS()

	cfgPath := config.Locate(expand(opts.ConfigPath))
	cfg, err := config.Load(fs.Billy(), absPath(cfgPath))
	switch {
	case err == nil:
		log.Debugf("Loaded config %s", cfgPath)
	case config.IsMissing(err) && opts.ConfigPath == "":
		log.Debug("No config file found, using defaults")
	default:
		log.Warnf("Using default config: %v", err)
	}

	report.PrintBanner(os.Stdout)

	m, failures := matcher.New(cfg.FlagPatterns)
	for _, ferr := range failures {
		log.Errorf("Invalid regex pattern: %v", ferr)
	}
	if opts.Pattern != "" {
		if err := m.AddPattern(opts.Pattern); err != nil {
			log.Errorf("Invalid regex pattern: %v", err)
		} else {
			log.Infof("Added custom pattern: %s", opts.Pattern)
		}
	}

	timeout := cfg.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = opts.Timeout
	}
	client := transport.New(time.Duration(timeout)*time.Second, cfg.UserAgents[0])
	switch {
	case opts.UserAgent != "":
		client.SetUserAgent(opts.UserAgent)
	case opts.RandomAgent:
		client.RotateUserAgents(cfg.UserAgents)
	}

	threads := opts.Threads
	if !cmd.Flags().Changed("threads") && cfg.MaxThreads > 0 {
		threads = cfg.MaxThreads
	}

	dopts := []scanner.Option{scanner.WithLogger(log)}
	if !opts.Verbose {
		tracker := &progressTracker{out: os.Stderr}
		log.AddHook(tracker)
		dopts = append(dopts, scanner.WithTracker(tracker))
	}
	d := scanner.New(m, client, fs, cfg, dopts...)

	ctx := context.Background()
	start := time.Now()
	switch {
	case opts.URL != "":
		target := scanner.NormalizeURL(opts.URL)
		if opts.Crawl {
			d.Crawl(ctx, target, threads)
		} else {
			d.ScanURL(ctx, target)
		}
		if opts.CommonFiles {
			d.ScanCommonFiles(ctx, target)
		}
	case opts.URLFile != "":
		d.ScanURLsFromFile(ctx, opts.URLFile, threads)
	case opts.Directory != "":
		d.ScanDirectory(opts.Directory, opts.Recursive)
	case opts.SingleFile != "":
		d.ScanFile(opts.SingleFile)
	case opts.Host != "":
		d.ScanHost(ctx, opts.Host, opts.Ports)
	}

	records := m.History()
	report.PrintSummary(os.Stdout, records, d.Stats(), time.Since(start))

	if opts.Output != "" {
		if err := report.Save(fs, opts.Output, records); err != nil {
			log.Errorf("Failed to save results: %v", err)
		} else {
			log.Infof("Results saved to: %s", opts.Output)
		}
	}
	return nil
}

// progressTracker draws a progress bar over a URL pool. It also acts as a
// logrus hook that wipes the bar before a log line is written to the same
// terminal; the next tick redraws it.
type progressTracker struct {
	out io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (p *progressTracker) Start(total int) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Scanning URLs[reset]"),
		progressbar.OptionClearOnFinish(),
	)
	p.mu.Lock()
	p.bar = bar
	p.mu.Unlock()
}

func (p *progressTracker) Done(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func (p *progressTracker) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (p *progressTracker) Fire(*logrus.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		return p.bar.Clear()
	}
	return nil
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	if p, err := homedir.Expand(path); err == nil {
		return p
	}
	return path
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
