package backfill

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/reconciliation"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Outcome classifies what happened to one game of a batch.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeNotReady  Outcome = "not_ready"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// GameRef is one entry of a games list.
type GameRef struct {
	GameID string `json:"game_id"`
	Round  int    `json:"round"`
}

// GameResult is the outcome of one game.
type GameResult struct {
	Ref      GameRef
	Outcome  Outcome
	Err      error
	Result   *pipeline.Result
	Report   *reconciliation.Report
	Warnings int
	Duration time.Duration
}

// Summary totals a batch run.
type Summary struct {
	Processed int
	NotReady  int
	Failed    int
	Skipped   int
	// StopRound is the round of the first not-ready game, 0 when every
	// round was reached.
	StopRound int
	Results   []GameResult
}

// ProcessedResults returns the results of the games that were processed.
func (s *Summary) ProcessedResults() []*pipeline.Result {
	var out []*pipeline.Result
	for _, r := range s.Results {
		if r.Outcome == OutcomeProcessed && r.Result != nil {
			out = append(out, r.Result)
		}
	}
	return out
}

func (s *Summary) add(r GameResult) {
	switch r.Outcome {
	case OutcomeProcessed:
		s.Processed++
	case OutcomeNotReady:
		s.NotReady++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
	if r.Outcome != OutcomeSkipped {
		s.Results = append(s.Results, r)
	}
}

// Job models the database representation of a backfill job.
type Job struct {
	JobID           string
	GameIDs         pq.StringArray
	Rounds          pq.Int64Array
	Reload          bool
	Status          JobStatus
	StatusMessage   sql.NullString
	ProgressCurrent int
	ProgressTotal   int
	Processed       int
	NotReady        int
	Failed          int
	LastError       sql.NullString
	RetryCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       sql.NullTime
	CompletedAt     sql.NullTime
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// Games pairs the job's game ids with their rounds.
func (j *Job) Games() []GameRef {
	refs := make([]GameRef, len(j.GameIDs))
	for i, id := range j.GameIDs {
		refs[i].GameID = id
		if i < len(j.Rounds) {
			refs[i].Round = int(j.Rounds[i])
		}
	}
	return refs
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Games  []GameRef
	Reload bool
}

// Reporter receives lifecycle callbacks from the runner. Callbacks are made
// from the runner's goroutine, one at a time.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnRoundStart(round int, games int)
	OnGameProcessed(result GameResult)
	OnProgress(message string, current int, total int)
	OnJobComplete(summary *Summary)
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}

// JobEvent is one entry of a job's log.
type JobEvent struct {
	ID              int64         `json:"id"`
	Kind            string        `json:"kind"`
	Message         string        `json:"message"`
	ProgressCurrent sql.NullInt64 `json:"-"`
	ProgressTotal   sql.NullInt64 `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
}

// JobDetail is a job with its event log.
type JobDetail struct {
	Job    *Job
	Events []JobEvent
}
