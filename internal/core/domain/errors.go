package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown backend or output format.
	ErrUnsupportedType = errors.New("unsupported type")

	// Document Errors.

	// ErrParse indicates a document could not be parsed as XML.
	ErrParse = errors.New("document parse failed")

	// ErrNoPatient indicates a document carries no recordTarget/patientRole.
	ErrNoPatient = errors.New("no patient role in document")

	// Scoring Errors.

	// ErrCatalogNotFinalized indicates document frequencies were requested
	// before the full corpus scan completed.
	ErrCatalogNotFinalized = errors.New("section catalog not finalized")

	// ErrCheckpointWrite indicates a checkpoint batch could not be persisted.
	// Resumability depends on every batch being durable, so this is fatal.
	ErrCheckpointWrite = errors.New("checkpoint write failed")

	// ErrMemoryLimit indicates the process exceeded its memory budget and
	// stopped starting new batches.
	ErrMemoryLimit = errors.New("memory limit exceeded")

	// ErrRunInProgress indicates a scoring run is already executing.
	ErrRunInProgress = errors.New("scoring run in progress")

	// External Service Errors.

	// ErrSearchUnavailable indicates the patient search index is not configured.
	ErrSearchUnavailable = errors.New("patient search unavailable")

	// ErrTimeSeriesUnavailable indicates the time-series store is not configured.
	ErrTimeSeriesUnavailable = errors.New("time-series store unavailable")

	// ErrBlobStoreUnavailable indicates the blob store is not configured.
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
