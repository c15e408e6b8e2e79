package domain

import "time"

// FailureStage is the pipeline stage an item failed in.
type FailureStage string

const (
	StageFetch   FailureStage = "fetch"
	StageExtract FailureStage = "extract"
	StageChunk   FailureStage = "chunk"
	StageStore   FailureStage = "store"
	StageEmbed   FailureStage = "embed"
)

// ItemFailure records an item that was skipped during ingestion.
type ItemFailure struct {
	SourceID  string
	CatalogID string
	Stage     FailureStage
	Reason    string
	At        time.Time
}

// IngestReport summarises one ingestion run of a source. Counts are
// accurate even when the run returns an error.
type IngestReport struct {
	SourceID string

	// Pages is the number of catalog pages completed in this run.
	Pages int

	// Documents is the number of documents stored (new or changed).
	Documents int

	// Unchanged is the number of documents skipped because their content hash matched.
	Unchanged int

	// Duplicates is the number of catalog entries seen twice in this run.
	Duplicates int

	// Chunks is the number of chunks written.
	Chunks int

	// Embedded is the number of chunks embedded inline.
	Embedded int

	// Failures are the items recorded as failed.
	Failures []ItemFailure

	StartedAt  time.Time
	FinishedAt time.Time
}

// BatchFailure is an embedding batch abandoned after retries.
type BatchFailure struct {
	ChunkIDs []string
	Reason   string
}

// IndexReport summarises an embed-and-store call.
type IndexReport struct {
	// Embedded is the number of chunks whose vectors were stored.
	Embedded int

	// Failed lists batches left un-embedded for the next pass.
	Failed []BatchFailure
}

// FailedChunks returns the number of chunks in failed batches.
func (r *IndexReport) FailedChunks() int {
	n := 0
	for _, f := range r.Failed {
		n += len(f.ChunkIDs)
	}
	return n
}

// Merge adds another report's counts into r.
func (r *IndexReport) Merge(o *IndexReport) {
	if o == nil {
		return
	}
	r.Embedded += o.Embedded
	r.Failed = append(r.Failed, o.Failed...)
}

// RunTrigger is what started an ingestion run.
type RunTrigger string

const (
	TriggerManual   RunTrigger = "manual"
	TriggerSchedule RunTrigger = "schedule"
)

// RunRecord is the persisted outcome of one ingestion run.
type RunRecord struct {
	SourceID  string
	Trigger   RunTrigger
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string
	Documents int
	Chunks    int
	Failures  int
}

// NewRunRecord summarises a report and the error the run returned.
func NewRunRecord(report *IngestReport, trigger RunTrigger, runErr error) RunRecord {
	rec := RunRecord{
		SourceID:  report.SourceID,
		Trigger:   trigger,
		StartedAt: report.StartedAt,
		EndedAt:   report.FinishedAt,
		Success:   runErr == nil,
		Documents: report.Documents,
		Chunks:    report.Chunks,
		Failures:  len(report.Failures),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	return rec
}
