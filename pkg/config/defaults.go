package config

// Traversal defaults.
const (
	DefaultOrdering = "topo"
	DefaultWorkers  = 1
)

// Output defaults.
const (
	DefaultFormat = "plot"
)

// Cache defaults.
const (
	DefaultObjectCacheSize = "256MB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultSampleRatio = 1.0
)
