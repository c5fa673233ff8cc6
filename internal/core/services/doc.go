// Package services implements the driving port interfaces.
//
// The ingestion pipeline, catalog search and support chat live here. They
// reach storage, models and queues only through driven ports, so every
// service runs against the in-memory adapters in tests.
package services
