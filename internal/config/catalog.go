package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalogsearch/pkg/config"
	"github.com/abgdnv/catalogsearch/pkg/config/configloader"
)

var _ configloader.Validator = (*CatalogConfig)(nil)

// CatalogConfig configures the catalog service. Records come from PostgreSQL when a
// database URL is set, otherwise from the seed file.
type CatalogConfig struct {
	HTTPServer config.HTTPConfig     `koanf:"server"`
	Log        config.LogConfig      `koanf:"log"`
	PProf      config.PProfConfig    `koanf:"pprof"`
	Shutdown   config.ShutdownConfig `koanf:"shutdown"`
	Database   config.DatabaseConfig `koanf:"database"`
	Seed       SeedConfig            `koanf:"seed"`
}

type SeedConfig struct {
	File string `koanf:"file"`
}

// CatalogDefaults returns the values used when no other source sets a key.
func CatalogDefaults() map[string]any {
	return map[string]any{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "2s",
		"log.level":                 "info",
		"pprof.addr":                ":6060",
		"shutdown.timeout":          "10s",
		"database.timeout":          "5s",
		"seed.file":                 "configs/products.json",
	}
}

func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString("\n--- Seed ---\n")
	b.WriteString(fmt.Sprintf("  seed.file: %s\n", c.Seed.File))
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *CatalogConfig) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if !c.Database.Enabled() && c.Seed.File == "" {
		return fmt.Errorf("either database.url or seed.file must be configured")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}
