package live

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumen-dev/lumen/pkg/snapshot"
)

// Config configures a live server.
type Config struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// ReadTimeout bounds one WebSocket read (default 60s).
	ReadTimeout time.Duration

	// WriteTimeout bounds one WebSocket write (default 10s).
	WriteTimeout time.Duration

	// MaxEventQueue is the per-session event buffer; events beyond it are
	// dropped (default 256).
	MaxEventQueue int

	// MetricsNamespace is the Prometheus namespace (default "lumen").
	MetricsNamespace string

	// Registry is the Prometheus registry (default: a fresh registry per
	// server, exposed at /metrics).
	Registry *prometheus.Registry

	// TracerName names the OpenTelemetry tracer (default "lumen").
	TracerName string

	// Logger is the base logger (default slog.Default()).
	Logger *slog.Logger

	// Snapshots, when set, receives a copy of every /snapshot export.
	Snapshots snapshot.Store
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8080",
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		MaxEventQueue:    256,
		MetricsNamespace: "lumen",
		TracerName:       "lumen",
	}
}

// withDefaults fills zero values in.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxEventQueue == 0 {
		c.MaxEventQueue = def.MaxEventQueue
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = def.MetricsNamespace
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.TracerName == "" {
		c.TracerName = def.TracerName
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
