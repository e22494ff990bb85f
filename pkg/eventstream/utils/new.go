package eventstreamutils

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spectralworks/specmatch/pkg/eventstream"
	"github.com/spectralworks/specmatch/pkg/eventstream/kafka"
	"github.com/spectralworks/specmatch/pkg/eventstream/nop"
)

// Supported eventstream provider constants
const (
	Nop   = "nop"
	Kafka = "kafka"
)

// SupportedProviders returns the list of all supported eventstream provider names.
func SupportedProviders() []string {
	return []string{Nop, Kafka}
}

type NewPublisherOpts struct {
	// Provider selects the backend. Empty means nop.
	Provider string

	// Brokers is a comma-separated list of Kafka broker addresses.
	// Ignored by nop.
	Brokers string

	// Topic is the Kafka topic run events are published to. Ignored by nop.
	Topic string

	// Logger receives publish failures. Optional.
	Logger *slog.Logger
}

// NewPublisher creates an event publisher for the given provider.
// Returns an error if the provider name is not recognized.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.Provider {
	case Nop, "":
		return nop.NewPublisher(), nil
	case Kafka:
		return kafka.NewPublisher(kafka.Config{
			Brokers: SplitBrokers(o.Brokers),
			Topic:   o.Topic,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unknown eventstream provider: %q (supported: %v)", o.Provider, SupportedProviders())
	}
}

// SplitBrokers splits a comma-separated broker list into addresses,
// trimming whitespace and dropping empty entries.
func SplitBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
