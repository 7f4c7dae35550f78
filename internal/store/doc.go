// Package store defines the persistence interfaces consumed by the
// upload-processing pipeline, along with the common error types returned
// by their implementations. Concrete implementations live under
// internal/platform (e.g., postgres) and are selected once at startup.
package store
