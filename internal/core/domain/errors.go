package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the caller does not own the requested resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupportedType indicates a media type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the generative model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding model is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrMalformedModelOutput indicates a model answered but the answer
	// could not be parsed into the expected shape.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrDispatchFailed indicates a stage hand-off could not be enqueued.
	ErrDispatchFailed = errors.New("stage dispatch failed")

	// ErrQueueFull indicates the task queue has no free capacity.
	ErrQueueFull = errors.New("task queue full")

	// ErrQueueClosed indicates the task queue no longer accepts work.
	ErrQueueClosed = errors.New("task queue closed")

	// ErrStageNotReady indicates a stage was invoked on a document whose
	// persisted state does not satisfy the stage's entry condition.
	ErrStageNotReady = errors.New("stage not ready")

	// ErrStaleStatus indicates a version-checked status update lost a race:
	// the persisted status was no longer one of the expected values.
	ErrStaleStatus = errors.New("stale document status")
)
