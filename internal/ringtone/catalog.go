package ringtone

import (
	"io"
	"log/slog"
	"sync"

	"github.com/jmylchreest/ringd/internal/config"
)

// Entry describes one available ringtone.
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	URI    URI    `json:"uri" yaml:"uri"`
	Source string `json:"source" yaml:"source"`
	Size   int64  `json:"size" yaml:"size"`
}

// Catalog holds the bundle, system provider and resolver built from the
// ringtone configuration, and swaps them atomically on reload.
type Catalog struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	bundle   *Bundle
	system   *ThemeSystem
	resolver *Resolver
}

// NewCatalog creates a Catalog for cfg.
func NewCatalog(cfg config.RingtoneConfig, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{logger: logger}
	c.Reload(cfg)
	return c
}

// Reload rebuilds the catalog from cfg.
func (c *Catalog) Reload(cfg config.RingtoneConfig) {
	bundle := NewBundle(config.ExpandPath(cfg.BundleDir))
	system := NewThemeSystem(cfg)
	resolver := NewResolver(bundle, system, c.logger)

	c.mu.Lock()
	c.bundle, c.system, c.resolver = bundle, system, resolver
	c.mu.Unlock()

	c.logger.Debug("ringtone catalog loaded", "bundle_dir", cfg.BundleDir, "theme", cfg.Theme)
}

func (c *Catalog) snapshot() (*Bundle, *ThemeSystem, *Resolver) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bundle, c.system, c.resolver
}

// Resolve resolves a requested ringtone name.
func (c *Catalog) Resolve(name string) Resolution {
	_, _, r := c.snapshot()
	return r.Resolve(name)
}

// Open opens the resource behind uri.
func (c *Catalog) Open(uri URI) (io.ReadCloser, error) {
	b, _, _ := c.snapshot()
	return b.Open(uri)
}

// Entries lists the bundled ringtones followed by the system ringtones.
func (c *Catalog) Entries() ([]Entry, error) {
	b, sys, _ := c.snapshot()

	var entries []Entry
	for _, name := range b.Names() {
		uri, err := b.Lookup(name)
		if err != nil {
			continue
		}
		entries = append(entries, c.entry(b, name, uri, SourceBundled))
	}

	list, err := sys.List()
	if err != nil {
		return entries, err
	}
	def, _ := sys.DefaultURI()
	for _, uri := range list {
		source := SourceSystemList
		if uri == def {
			source = SourceSystemDefault
		}
		entries = append(entries, c.entry(b, uri.Path(), uri, source))
	}
	return entries, nil
}

func (c *Catalog) entry(b *Bundle, name string, uri URI, source Source) Entry {
	e := Entry{Name: name, URI: uri, Source: source.String()}
	if info, err := b.Stat(uri); err == nil {
		e.Size = info.Size()
	} else {
		c.logger.Debug("failed to stat ringtone", "uri", uri, "error", err)
	}
	return e
}
