// Package utils holds constants shared across packages.
package utils

import "time"

const (
	// DefaultRequestTimeout bounds store work behind one HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// SearchTimeout bounds a test search, rendering included.
	SearchTimeout = 60 * time.Second

	// EventPublishTimeout bounds publishing one form notification. It runs
	// detached from the request, so a disconnect does not drop the event.
	EventPublishTimeout = 5 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP and gRPC servers.
	ShutdownTimeout = 10 * time.Second
)

// QueueType names a form notification backend.
type QueueType string

const (
	QueueTypeMemory QueueType = "memory" // in-process, the default
	QueueTypeNATS   QueueType = "nats"   // JetStream
	QueueTypeRedis  QueueType = "redis"  // Streams with a consumer group
	QueueTypeKafka  QueueType = "kafka"
)

// StreamPrefix prefixes NATS streams, Redis streams and consumer groups.
const StreamPrefix = "searchforms"
