package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source type or payload format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIngestInProgress indicates an ingestion run is already active for the source.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// ErrCursorStalled indicates a source returned the cursor it was given
	// for a non-final page. The run is aborted rather than looping.
	ErrCursorStalled = errors.New("pagination cursor did not advance")

	// ErrDimensionMismatch indicates an embedding vector of the wrong size.
	// Vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGeneratorUnavailable indicates the answer generator is not configured or unreachable.
	ErrGeneratorUnavailable = errors.New("answer generator unavailable")

	// ErrRetrievalUnavailable indicates the retrieval path failed. It is
	// retryable and must not be confused with an ungrounded verdict.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrRateLimited indicates a remote rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrManualSource indicates a catalog entry that cannot be fetched automatically.
	ErrManualSource = errors.New("source requires manual import")
)

// TransientFetchError is a network or server failure that may succeed on retry.
type TransientFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error for %s: %v", e.URL, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// ExtractionError is a permanent failure to extract text from a payload.
// It is never retried.
type ExtractionError struct {
	ItemID string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.ItemID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingProviderError is a failure reported by the embedding provider.
type EmbeddingProviderError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *EmbeddingProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s embedding error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s embedding error: %v", e.Provider, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// StoreWriteError is a failure to persist documents, chunks or vectors.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// RetrievalError is a failure of the retrieval path at serve time.
type RetrievalError struct {
	// Stage is "embedding" or "search".
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s failed: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Is makes every RetrievalError match ErrRetrievalUnavailable.
func (e *RetrievalError) Is(target error) bool {
	return target == ErrRetrievalUnavailable
}

// IsTransient returns true if err is a TransientFetchError.
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// IsRetryable returns true if the error may succeed when the same call is
// repeated: transient fetches, retryable provider errors and retrieval failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsTransient(err) || errors.Is(err, ErrRetrievalUnavailable) {
		return true
	}
	var pe *EmbeddingProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsExtraction returns true if err is an ExtractionError.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// IsStoreWrite returns true if err is a StoreWriteError.
func IsStoreWrite(err error) bool {
	var se *StoreWriteError
	return errors.As(err, &se)
}
