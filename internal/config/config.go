// ABOUTME: Player adapter configuration backed by an ini file
// ABOUTME: Per-player sections override the DEFAULT section, x- keys are free-form
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/ini.v1"
)

// DefaultPort is the wifi server port clients try first.
const DefaultPort = 34271

var sectionClean = regexp.MustCompile(`[^a-z0-9_-]`)

// defaults hold the value of every known option when neither the player
// section nor DEFAULT sets it.
var defaults = map[string]string{
	"wifi-enabled":            "1",
	"wifi-port":               "34271",
	"player-encoding":         "UTF-8",
	"log-level":               "INFO",
	"fb-show-extensions":      "0",
	"fb-root-dirs":            "auto",
	"master-volume-enabled":   "0",
	"master-volume-get-cmd":   "",
	"master-volume-up-cmd":    "",
	"master-volume-down-cmd":  "",
	"master-volume-mute-cmd":  "",
	"system-shutdown-enabled": "0",
	"system-shutdown-cmd":     "",
}

// Config resolves options for one player adapter. Lookups check the player's
// own section first, then DEFAULT, then the built-in defaults.
type Config struct {
	player   string
	file     *ini.File
	path     string
	cacheDir string
}

// CanonicalName reduces a player name to a section name: lower case, with
// everything outside letters, digits, dash and underscore removed.
func CanonicalName(player string) string {
	return sectionClean.ReplaceAllString(strings.ToLower(player), "")
}

// New loads the configuration for the named player. A missing config file is
// not an error; a fresh file with the defaults gets written so users have
// something to edit.
func New(player string) (*Config, error) {
	name := CanonicalName(player)
	if name == "" {
		return nil, fmt.Errorf("unusable player name %q", player)
	}

	confDir := os.Getenv("XDG_CONFIG_HOME")
	if confDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("no home directory: %w", err)
		}
		confDir = filepath.Join(home, ".config")
	}
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("no home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".cache")
	}

	c := &Config{
		player:   name,
		path:     filepath.Join(confDir, "remuco", "remuco.cfg"),
		cacheDir: filepath.Join(cacheDir, "remuco"),
	}
	if err := os.MkdirAll(c.cacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	file, err := ini.LooseLoad(c.path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", c.path, err)
	}
	c.file = file

	if _, statErr := os.Stat(c.path); os.IsNotExist(statErr) {
		c.writeDefaults()
	}
	return c, nil
}

// writeDefaults seeds a fresh config file. Failure only costs the user the
// template, so it is logged and ignored.
func (c *Config) writeDefaults() {
	def := c.file.Section(ini.DefaultSection)
	for key, val := range defaults {
		if !def.HasKey(key) {
			def.Key(key).SetValue(val)
		}
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		log.Warn("cannot create config dir", "err", err)
		return
	}
	if err := c.file.SaveTo(c.path); err != nil {
		log.Warn("cannot write config file", "err", err)
	}
}

// Player returns the canonical player name.
func (c *Config) Player() string { return c.player }

// CacheDir returns the directory for per-player state files.
func (c *Config) CacheDir() string { return c.cacheDir }

// LogFile returns the per-player log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.cacheDir, c.player+".log")
}

func (c *Config) lookup(key string) string {
	if sec, err := c.file.GetSection(c.player); err == nil && sec.HasKey(key) {
		return sec.Key(key).String()
	}
	def := c.file.Section(ini.DefaultSection)
	if def.HasKey(key) {
		return def.Key(key).String()
	}
	return defaults[key]
}

// Str returns a known option as a string.
func (c *Config) Str(key string) string { return c.lookup(key) }

// Bool returns a known option as a boolean. Anything but 1/true/yes/on is
// false.
func (c *Config) Bool(key string) bool {
	switch strings.ToLower(c.lookup(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Int returns a known option as an integer, falling back to the built-in
// default on garbage.
func (c *Config) Int(key string) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(c.lookup(key)), "%d", &n); err != nil {
		log.Warn("bad integer option", "key", key, "value", c.lookup(key))
		fmt.Sscanf(defaults[key], "%d", &n)
	}
	return n
}

// List returns a known option as a comma separated list with blanks removed.
func (c *Config) List(key string) []string {
	var out []string
	for _, part := range strings.Split(c.lookup(key), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetX reads a free-form adapter specific option. By convention these keys
// start with "x-" so they never clash with the built-in options.
func (c *Config) GetX(key, fallback string) string {
	full := "x-" + key
	if sec, err := c.file.GetSection(c.player); err == nil && sec.HasKey(full) {
		return sec.Key(full).String()
	}
	def := c.file.Section(ini.DefaultSection)
	if def.HasKey(full) {
		return def.Key(full).String()
	}
	return fallback
}

// SetX stores a free-form adapter option in the player's section and saves
// the file.
func (c *Config) SetX(key, value string) error {
	c.file.Section(c.player).Key("x-" + key).SetValue(value)
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	return c.file.SaveTo(c.path)
}

// WifiEnabled reports whether the TCP server should run.
func (c *Config) WifiEnabled() bool { return c.Bool("wifi-enabled") }

// WifiPort returns the TCP port the server binds.
func (c *Config) WifiPort() int { return c.Int("wifi-port") }

// PlayerEncoding returns the character encoding player supplied strings use.
func (c *Config) PlayerEncoding() string { return c.Str("player-encoding") }

// LogLevel maps the configured level name onto a logger level.
func (c *Config) LogLevel() log.Level {
	switch strings.ToUpper(c.Str("log-level")) {
	case "DEBUG":
		return log.DebugLevel
	case "WARNING", "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// FbShowExtensions reports whether file browser items keep their extension.
func (c *Config) FbShowExtensions() bool { return c.Bool("fb-show-extensions") }

// FbRootDirs returns the configured file browser roots, "auto" included.
func (c *Config) FbRootDirs() []string { return c.List("fb-root-dirs") }

// MasterVolumeEnabled reports whether volume commands go to the system mixer
// instead of the player.
func (c *Config) MasterVolumeEnabled() bool { return c.Bool("master-volume-enabled") }

// MasterVolumeCmd returns the shell command for one of get, up, down, mute.
func (c *Config) MasterVolumeCmd(which string) string {
	return c.Str("master-volume-" + which + "-cmd")
}

// SystemShutdownEnabled reports whether clients may shut the system down.
func (c *Config) SystemShutdownEnabled() bool { return c.Bool("system-shutdown-enabled") }

// SystemShutdownCmd returns the shell command used for a system shutdown.
func (c *Config) SystemShutdownCmd() string { return c.Str("system-shutdown-cmd") }
