// Package config loads and hot-reloads the agent configuration. The file
// layout mirrors the plugin's original config: per-outcome webhook URLs and
// embed templates, global embed defaults, the post-command wait window in
// server ticks, and the denial-phrase set used by the classifier.
package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// One server tick.
const tickDuration = 50 * time.Millisecond

const (
	defaultColor     = 5814783
	defaultAuthor    = "Command Logs"
	defaultWaitTicks = 2
)

// Template is one outcome's embed template. Pointer fields distinguish
// "not set" from a zero value so unset fields fall through to EmbedDefaults.
type Template struct {
	Title            string  `mapstructure:"title"`
	Description      string  `mapstructure:"description"`
	Color            *int    `mapstructure:"color"`
	Footer           *string `mapstructure:"footer"`
	IncludeTimestamp *bool   `mapstructure:"include_timestamp"`
	IncludeImage     bool    `mapstructure:"include_image"`
	ImageURL         string  `mapstructure:"image_url"`
	IncludeThumbnail bool    `mapstructure:"include_thumbnail"`
	ThumbnailURL     string  `mapstructure:"thumbnail_url"`
}

// EmbedDefaults are the global fallbacks applied when a template leaves a
// field unset.
type EmbedDefaults struct {
	AuthorName       string `mapstructure:"author_name"`
	FooterText       string `mapstructure:"footer_text"`
	FooterIconURL    string `mapstructure:"footer_icon_url"`
	Color            int    `mapstructure:"color"`
	IncludeTimestamp bool   `mapstructure:"include_timestamp"`
}

// Config is one immutable configuration snapshot.
type Config struct {
	Webhooks      map[string]string   `mapstructure:"webhooks"`
	Templates     map[string]Template `mapstructure:"templates"`
	EmbedDefaults EmbedDefaults       `mapstructure:"embed_defaults"`
	DenialPhrases []string            `mapstructure:"denial-phrases"`
	WaitTicks     int                 `mapstructure:"wait-ticks-after-execute"`
	Debug         bool                `mapstructure:"debug"`
}

// WebhookURL returns the webhook URL configured for the outcome key, or ""
// when the outcome is not configured.
func (c *Config) WebhookURL(key string) string {
	return c.Webhooks[key]
}

// TemplateFor returns the embed template for the outcome key.
func (c *Config) TemplateFor(key string) (Template, bool) {
	tpl, ok := c.Templates[key]
	return tpl, ok
}

// WaitDuration converts the configured tick count into the wall-clock window
// the correlator waits before falling back to synchronous detection.
func (c *Config) WaitDuration() time.Duration {
	ticks := c.WaitTicks
	if ticks <= 0 {
		ticks = defaultWaitTicks
	}
	return time.Duration(ticks) * tickDuration
}

// Store owns the current configuration snapshot and the file it came from.
// Snapshot reads are lock-free; Reload swaps in a freshly parsed snapshot.
type Store struct {
	path    string
	current atomic.Pointer[Config]
}

// NewStore reads the configuration file at path and returns a Store holding
// the initial snapshot.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current configuration. The returned value must be
// treated as read-only; it may be shared by any number of goroutines.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// Reload re-reads the configuration file and atomically publishes the new
// snapshot. On error the previous snapshot stays in effect.
func (s *Store) Reload() error {
	cfg, err := load(s.path)
	if err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}

// load parses the configuration file, applying defaults for absent keys.
func load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("embed_defaults.author_name", defaultAuthor)
	v.SetDefault("embed_defaults.color", defaultColor)
	v.SetDefault("embed_defaults.include_timestamp", true)
	v.SetDefault("wait-ticks-after-execute", defaultWaitTicks)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
