package config

const (
	// defaultWorkers of zero means one scoring worker per CPU.
	defaultWorkers = 0

	defaultLibraryPath = "library.db"

	defaultArchiveProvider = "inmemory"

	defaultEventProvider = "nop"
	defaultEventBrokers  = "localhost:9092"
	defaultEventTopic    = "specmatch.runs"

	defaultAPIListen = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Processing: ProcessingConfig{
			Workers: defaultWorkers,
		},
		Library: LibraryConfig{
			Path: defaultLibraryPath,
		},
		Archive: ArchiveConfig{
			Provider: defaultArchiveProvider,
		},
		Eventstream: EventstreamConfig{
			Provider: defaultEventProvider,
			Brokers:  defaultEventBrokers,
			Topic:    defaultEventTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
