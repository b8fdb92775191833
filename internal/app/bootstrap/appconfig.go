// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles the HTTP listener, logging, CORS and TLS.
// AppConfig carries everything specific to the household service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Write batching and store retries
	BatchMaxOps     int           // max ids per bulk write in a sweep
	StoreMaxRetries uint64        // retries after the first attempt on transient errors
	StoreRetryBase  time.Duration // first backoff interval

	// Per-operation deadlines
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SweepTimeout time.Duration

	// Audit logging: "all", "db", "log", or "off"
	AuditHouseholds string
	AuditAdmin      string

	// Background repair pass; 0 disables it
	ReconcileInterval time.Duration
}
