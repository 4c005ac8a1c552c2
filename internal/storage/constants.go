package db

import "time"

// Connection pool defaults.
const (
	defaultMaxConns          = 10
	defaultMinConns          = 2
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultMaxConnLifetime   = 30 * time.Minute
	defaultHealthCheckPeriod = time.Minute
)

// Connection retry settings.
const (
	maxConnectionRetries = 5
	connectionRetrySleep = 2 * time.Second
)

// uniqueViolationCode is the PostgreSQL error code for a unique
// constraint violation.
const uniqueViolationCode = "23505"
