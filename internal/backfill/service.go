package backfill

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/stintstats/internal/store"
)

// Request represents a backfill invocation request.
type Request struct {
	Games  []GameRef
	Reload bool
}

// Validate checks that the request names at least one game and no blank ids.
func (r Request) Validate() error {
	if len(r.Games) == 0 {
		return fmt.Errorf("backfill requires at least one game id")
	}
	for i, g := range r.Games {
		if strings.TrimSpace(g.GameID) == "" {
			return fmt.Errorf("game %d has an empty id", i)
		}
		if g.Round < 0 {
			return fmt.Errorf("game %s has negative round %d", g.GameID, g.Round)
		}
	}
	return nil
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	jobs   *JobStore
	runner *Runner

	historyLimit int
	eventLimit   int
	onActive     func(n int)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(db *store.Database, runner *Runner, logger *log.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = log.New(log.Writer(), "[backfill] ", log.LstdFlags)
	}

	return &Service{
		jobs:         NewJobStore(db),
		runner:       runner,
		historyLimit: 10,
		eventLimit:   200,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// OnActiveJobs registers a callback told how many jobs are running (0 or 1).
func (s *Service) OnActiveJobs(fn func(n int)) {
	s.onActive = fn
}

// Start launches the background worker loop.
func (s *Service) Start() {
	n, err := s.jobs.Requeue(s.ctx)
	if err != nil {
		s.logger.Printf("failed to requeue jobs: %v", err)
	} else if n > 0 {
		s.logger.Printf("requeued %d interrupted jobs", n)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job := &Job{
		GameIDs:       make(pq.StringArray, len(req.Games)),
		Rounds:        make(pq.Int64Array, len(req.Games)),
		Reload:        req.Reload,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: len(req.Games),
	}
	for i, g := range req.Games {
		job.GameIDs[i] = strings.TrimSpace(g.GameID)
		job.Rounds[i] = int64(g.Round)
	}

	return s.jobs.Create(ctx, job)
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.jobs.Active(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.jobs.Recent(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

// GetJob returns one job and its latest events.
func (s *Service) GetJob(ctx context.Context, jobID string) (*JobDetail, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	events, err := s.jobs.Events(ctx, jobID, s.eventLimit)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: job, Events: events}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.jobs.Claim(s.ctx)
			if err != nil {
				s.logger.Printf("claim job error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.setActive(1)
			s.executeJob(job)
			s.setActive(0)
		}
	}
}

func (s *Service) setActive(n int) {
	if s.onActive != nil {
		s.onActive(n)
	}
}

func (s *Service) executeJob(job *Job) {
	spec := JobSpec{Games: job.Games(), Reload: job.Reload}
	if len(spec.Games) == 0 {
		err := fmt.Errorf("job %s has no games", job.JobID)
		s.logger.Printf("invalid job: %v", err)
		if ferr := s.jobs.Finish(s.ctx, job.JobID, nil, err); ferr != nil {
			s.logger.Printf("%v", ferr)
		}
		return
	}

	reporter := &jobReporter{ctx: s.ctx, jobs: s.jobs, logger: s.logger, jobID: job.JobID, total: len(spec.Games)}
	summary, err := s.runner.Run(s.ctx, spec, reporter)
	if err != nil {
		s.logger.Printf("job %s failed: %v", job.JobID, err)
	}

	// The service context may already be cancelled; still record the outcome.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := s.jobs.Finish(ctx, job.JobID, summary, err); ferr != nil {
		s.logger.Printf("%v", ferr)
	}
}

func completionMessage(s *Summary) string {
	msg := fmt.Sprintf("Processed %d, not ready %d, failed %d, skipped %d",
		s.Processed, s.NotReady, s.Failed, s.Skipped)
	if s.StopRound != 0 {
		msg += fmt.Sprintf("; stopped after round %d", s.StopRound)
	}
	return msg
}

// jobReporter mirrors runner callbacks into the job's row and event log.
// Write failures are logged and never stop the run.
type jobReporter struct {
	ctx    context.Context
	jobs   *JobStore
	logger *log.Logger
	jobID  string
	total  int
}

func (r *jobReporter) check(err error) {
	if err != nil {
		r.logger.Printf("job %s: %v", r.jobID, err)
	}
}

func (r *jobReporter) OnJobStart(JobSpec) {
	r.check(r.jobs.RecordProgress(r.ctx, r.jobID, 0, r.total, "Job starting"))
}

func (r *jobReporter) OnRoundStart(round int, games int) {
	r.check(r.jobs.Event(r.ctx, r.jobID, EventRound, fmt.Sprintf("Round %d: %d games", round, games)))
}

func (r *jobReporter) OnGameProcessed(result GameResult) {
	msg := fmt.Sprintf("Game %s %s", result.Ref.GameID, result.Outcome)
	if result.Err != nil {
		msg += ": " + result.Err.Error()
	}
	r.check(r.jobs.Event(r.ctx, r.jobID, EventGame, msg))
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	r.check(r.jobs.RecordProgress(r.ctx, r.jobID, current, total, message))
}

func (r *jobReporter) OnJobComplete(*Summary) {}

func (r *jobReporter) OnJobError(err error) {
	r.check(r.jobs.Event(r.ctx, r.jobID, EventError, err.Error()))
}
