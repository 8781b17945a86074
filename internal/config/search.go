// Package config holds the configuration of the search and catalog services.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abgdnv/catalogsearch/pkg/config"
	"github.com/abgdnv/catalogsearch/pkg/config/configloader"
)

var _ configloader.Validator = (*SearchConfig)(nil)

// SearchConfig configures the search service.
type SearchConfig struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Source     SourceConfig           `koanf:"source"`
	Search     SearchOptions          `koanf:"search"`
	Session    SessionConfig          `koanf:"session"`
}

// SourceConfig points the search service at the catalog endpoint.
type SourceConfig struct {
	URL            string                      `koanf:"url"`
	Timeout        time.Duration               `koanf:"timeout"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type SearchOptions struct {
	Debounce      time.Duration `koanf:"debounce"`
	PageSize      int           `koanf:"pagesize"`
	RefetchOnSort bool          `koanf:"refetchonsort"`
}

type SessionConfig struct {
	IdleTimeout   time.Duration `koanf:"idletimeout"`
	SweepInterval time.Duration `koanf:"sweepinterval"`
}

// SearchDefaults returns the values used when no other source sets a key.
func SearchDefaults() map[string]any {
	return map[string]any{
		"server.port":                               8081,
		"server.maxHeaderBytes":                     1 << 20,
		"server.timeout.read":                       "5s",
		"server.timeout.write":                      "10s",
		"server.timeout.idle":                       "60s",
		"server.timeout.readHeader":                 "2s",
		"log.level":                                 "info",
		"pprof.addr":                                ":6061",
		"shutdown.timeout":                          "10s",
		"telemetry.traces.otlphttp.timeout":         "5s",
		"source.url":                                "http://localhost:8080/apis/products",
		"source.circuitbreaker.consecutivefailures": 5,
		"source.circuitbreaker.errorratepercent":    50,
		"source.circuitbreaker.opentimeout":         "30s",
		"source.circuitbreaker.halfopenrequests":    1,
		"search.debounce":                           "300ms",
		"search.pagesize":                           10,
		"session.idletimeout":                       "15m",
		"session.sweepinterval":                     "1m",
	}
}

func (c *SearchConfig) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())

	b.WriteString("\n--- Catalog Source ---\n")
	b.WriteString(fmt.Sprintf("  source.url: %s\n", c.Source.URL))
	b.WriteString(fmt.Sprintf("  source.timeout: %s\n", c.Source.Timeout))
	b.WriteString(c.Source.CircuitBreaker.String())

	b.WriteString("\n--- Search ---\n")
	b.WriteString(fmt.Sprintf("  search.debounce: %s\n", c.Search.Debounce))
	b.WriteString(fmt.Sprintf("  search.pageSize: %d\n", c.Search.PageSize))
	b.WriteString(fmt.Sprintf("  search.refetchOnSort: %t\n", c.Search.RefetchOnSort))
	b.WriteString(fmt.Sprintf("  session.idleTimeout: %s\n", c.Session.IdleTimeout))
	b.WriteString(fmt.Sprintf("  session.sweepInterval: %s\n", c.Session.SweepInterval))

	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *SearchConfig) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("invalid search debounce: %v", c.Search.Debounce)
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("invalid search page size: %d", c.Search.PageSize)
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("invalid session idle timeout: %v", c.Session.IdleTimeout)
	}
	if c.Session.IdleTimeout > 0 && c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive when idle timeout is set")
	}
	return nil
}

func (c *SourceConfig) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid catalog source url: %q", c.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid catalog source timeout: %v", c.Timeout)
	}
	return c.CircuitBreaker.Validate()
}
