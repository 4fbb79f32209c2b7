// Package config loads the flaghunter configuration file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/hawtsauceTR/flaghunter/internal/errs"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "config.json"

// xdgFile is the config file looked up under the XDG config dirs.
const xdgFile = "flaghunter/config.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds every tunable the scanners read.
type Config struct {
	FlagPatterns   []string `json:"flag_patterns" yaml:"flag_patterns"`
	UserAgents     []string `json:"user_agents" yaml:"user_agents"`
	FileExtensions []string `json:"file_extensions" yaml:"file_extensions"`
	Timeout        int      `json:"timeout" yaml:"timeout"`
	MaxThreads     int      `json:"max_threads" yaml:"max_threads"`
	MaxFileSize    int64    `json:"max_file_size" yaml:"max_file_size"` // 0 means no cap
	SniffText      bool     `json:"sniff_text" yaml:"sniff_text"`
}

// Default returns the built-in configuration used when no file is found.
func Default() *Config {
	return &Config{
		FlagPatterns: []string{
			`CTF\{[^}]+\}`,
			`FLAG\{[^}]+\}`,
			`flag\{[^}]+\}`,
			`PICO\{[^}]+\}`,
			`HTB\{[^}]+\}`,
			`[A-Za-z0-9_]+\{[A-Za-z0-9_!@#$%^&*()+=\-\[\]{}|;:,.<>?/~` + "`" + `]+\}`,
		},
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		},
		FileExtensions: []string{".txt", ".html", ".js", ".php", ".py", ".java", ".c", ".cpp", ".log"},
		Timeout:        10,
		MaxThreads:     10,
	}
}

// Load reads path from fsys. Keys missing from the file keep their default
// values. On any failure Load returns the defaults together with a
// CONFIG_LOAD error; the caller decides how loudly to report it.
func Load(fsys billy.Filesystem, path string) (*Config, error) {
	cfg := Default()

	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return cfg, errs.New(errs.CodeConfigLoad, "load config", path, err)
	}

	loaded := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, loaded)
	default:
		err = json.Unmarshal(data, loaded)
	}
	if err != nil {
		return cfg, errs.New(errs.CodeConfigLoad, "decode config", path, err)
	}

	loaded.normalize()
	return loaded, nil
}

// normalize repairs values a hand-edited file may leave unusable.
func (c *Config) normalize() {
	def := Default()
	if len(c.UserAgents) == 0 {
		c.UserAgents = def.UserAgents
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxThreads <= 0 {
		c.MaxThreads = def.MaxThreads
	}
	if c.MaxFileSize < 0 {
		c.MaxFileSize = 0
	}
	for i, ext := range c.FileExtensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.FileExtensions[i] = ext
	}
}

// Locate picks the config file to load. An explicit path always wins; then
// ./config.json; then flaghunter/config.json under the XDG config dirs. It
// returns DefaultFile when nothing exists so that Load reports the miss.
func Locate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	if p, err := xdg.SearchConfigFile(xdgFile); err == nil {
		return p
	}
	return DefaultFile
}

// IsMissing reports whether a Load error was caused by an absent file.
func IsMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
