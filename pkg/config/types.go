package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent specmatch configuration stored as config.toml
// in the .specmatch/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Processing  ProcessingConfig  `toml:"processing"`
	Library     LibraryConfig     `toml:"library"`
	Archive     ArchiveConfig     `toml:"archive"`
	Eventstream EventstreamConfig `toml:"eventstream"`
	API         APIConfig         `toml:"api"`
}

// ProcessingConfig holds settings for spectrum processing and scoring.
type ProcessingConfig struct {
	// Workers bounds scoring parallelism. Zero means one worker per CPU.
	Workers uint `toml:"workers,omitempty"`
}

// LibraryConfig holds spectral library settings.
type LibraryConfig struct {
	Path string `toml:"path,omitempty"`
}

// ArchiveConfig holds run archive settings.
// Target is the provider-specific location: a file path for sqlite,
// a connection string for postgres, unused for inmemory.
type ArchiveConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EventstreamConfig holds run event publishing settings.
// Brokers is a comma-separated list of Kafka broker addresses.
type EventstreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"processing.workers": {
		get: func(c *Config) string {
			return strconv.FormatUint(uint64(c.Processing.Workers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for processing.workers: %w", err)
			}
			c.Processing.Workers = uint(n)
			return nil
		},
	},
	"library.path": {
		get: func(c *Config) string { return c.Library.Path },
		set: func(c *Config, v string) error { c.Library.Path = v; return nil },
	},
	"archive.provider": {
		get: func(c *Config) string { return c.Archive.Provider },
		set: func(c *Config, v string) error { c.Archive.Provider = v; return nil },
	},
	"archive.target": {
		get: func(c *Config) string { return c.Archive.Target },
		set: func(c *Config, v string) error { c.Archive.Target = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.Eventstream.Provider },
		set: func(c *Config, v string) error { c.Eventstream.Provider = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.Eventstream.Brokers },
		set: func(c *Config, v string) error { c.Eventstream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.Eventstream.Topic },
		set: func(c *Config, v string) error { c.Eventstream.Topic = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
}
