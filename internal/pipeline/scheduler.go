package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gridsink/meterflow/internal/metrics"
	"github.com/gridsink/meterflow/internal/models"
	"github.com/gridsink/meterflow/internal/source"
	"github.com/gridsink/meterflow/internal/store"
)

// State tracks how far the shared snapshot has progressed through the
// current cycle. Jobs advance it only when their stage actually completes,
// so downstream jobs never act on a half-built snapshot.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateCleaned
	StateAggregated
	StateExported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateCleaned:
		return "cleaned"
	case StateAggregated:
		return "aggregated"
	case StateExported:
		return "exported"
	}
	return "unknown"
}

// ErrAlreadyStarted is returned when Start is called on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Config holds the fixed parameters of the recurring pipeline. Each job
// fires once after its offset and then every Interval. The offsets stagger
// the first cycle; steady-state firings of different jobs can overlap, which
// is why the snapshot is mutex-guarded.
type Config struct {
	Source          source.Source
	InputDelimiter  rune
	OutputPath      string
	OutputDelimiter rune

	Interval        time.Duration
	LoadOffset      time.Duration
	CleanOffset     time.Duration
	AggregateOffset time.Duration
	ExportOffset    time.Duration
}

// Scheduler owns the shared snapshot and runs the four stages as
// independently recurring jobs. Every firing is recorded to the run-history
// store (when configured) and to metrics.
type Scheduler struct {
	cfg   Config
	store *store.Store // optional, may be nil

	mu      sync.Mutex // guards raw, cleaned, state
	raw     *models.RawTable
	cleaned *models.Table
	state   State

	startMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(cfg Config, st *store.Store) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Scheduler{
		cfg:     cfg,
		store:   st,
		raw:     models.NewRawTable(),
		cleaned: models.NewTable(),
	}
}

// State returns the current run-state of the shared snapshot.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the four recurring jobs. A second start request while
// running is rejected and logged; callers re-arming on a timer can treat
// ErrAlreadyStarted as routine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.started {
		log.Printf("scheduler: already running, skipping duplicate start")
		metrics.SchedulerStartsRejected.Inc()
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	jobs := []struct {
		offset time.Duration
		fn     func()
	}{
		{s.cfg.LoadOffset, s.runLoad},
		{s.cfg.CleanOffset, s.runClean},
		{s.cfg.AggregateOffset, s.runAggregate},
		{s.cfg.ExportOffset, s.runExport},
	}
	for _, j := range jobs {
		s.wg.Add(1)
		go s.runJob(ctx, j.offset, j.fn)
	}

	s.started = true
	log.Printf("scheduler: pipeline scheduler started (interval %s)", s.cfg.Interval)
	return nil
}

// Stop cancels future firings and waits for in-flight jobs to complete.
// Running jobs are never interrupted mid-stage.
func (s *Scheduler) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if !s.started {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.started = false
	log.Printf("scheduler: shut down")
}

// RunOnce executes the four stages back to back, bypassing the timers.
func (s *Scheduler) RunOnce() {
	s.runLoad()
	s.runClean()
	s.runAggregate()
	s.runExport()
}

func (s *Scheduler) runJob(ctx context.Context, offset time.Duration, fn func()) {
	defer s.wg.Done()

	timer := time.NewTimer(offset)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	fn()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (s *Scheduler) runLoad() {
	run := s.beginRun("load")
	start := time.Now()

	var raw *models.RawTable
	status := s.guard("load", func() Status {
		var st Status
		raw, st = Load(s.cfg.Source, s.cfg.InputDelimiter)
		return st
	})

	rows := 0
	if raw != nil {
		rows = len(raw.Rows)
		s.mu.Lock()
		s.raw = raw
		s.cleaned = models.NewTable()
		if raw.Empty() {
			s.state = StateIdle
		} else {
			s.state = StateLoaded
		}
		s.mu.Unlock()
	}

	s.finishRun(run, "load", status, rows, rows, start)
}

func (s *Scheduler) runClean() {
	run := s.beginRun("clean")
	start := time.Now()

	s.mu.Lock()
	raw, state := s.raw, s.state
	s.mu.Unlock()

	if state != StateLoaded || raw.Empty() {
		log.Printf("scheduler: skipping cleaning: no data loaded yet (state %s)", state)
		s.finishRun(run, "clean", StatusSkipped, 0, 0, start)
		return
	}

	var cleaned *models.Table
	status := s.guard("clean", func() Status {
		var st Status
		cleaned, st = Clean(raw)
		return st
	})

	s.mu.Lock()
	switch {
	case status == StatusOK:
		s.cleaned = cleaned
		s.state = StateCleaned
	case status == StatusFailed && cleaned != nil:
		// Known-bad shape: the data is unusable, not partially usable.
		s.cleaned = cleaned
		s.state = StateIdle
	}
	// On unexpected failure the snapshot keeps its pre-stage state.
	s.mu.Unlock()

	s.finishRun(run, "clean", status, len(raw.Rows), cleaned.Len(), start)
}

func (s *Scheduler) runAggregate() {
	run := s.beginRun("aggregate")
	start := time.Now()

	s.mu.Lock()
	cleaned, state := s.cleaned, s.state
	s.mu.Unlock()

	if state != StateCleaned || cleaned.Empty() {
		log.Printf("scheduler: skipping hour metrics: no cleaned data available (state %s)", state)
		s.finishRun(run, "aggregate", StatusSkipped, 0, 0, start)
		return
	}

	var enriched *models.Table
	status := s.guard("aggregate", func() Status {
		var st Status
		enriched, st = AddHourMetrics(cleaned)
		return st
	})

	if status == StatusOK {
		s.mu.Lock()
		s.cleaned = enriched
		s.state = StateAggregated
		s.mu.Unlock()
	}

	s.finishRun(run, "aggregate", status, cleaned.Len(), enriched.Len(), start)
}

func (s *Scheduler) runExport() {
	run := s.beginRun("export")
	start := time.Now()

	s.mu.Lock()
	cleaned, state := s.cleaned, s.state
	s.mu.Unlock()

	if state != StateAggregated || cleaned.Empty() {
		log.Printf("scheduler: skipping export: no data available (state %s)", state)
		s.finishRun(run, "export", StatusSkipped, 0, 0, start)
		return
	}

	status := s.guard("export", func() Status {
		return Export(cleaned, s.cfg.OutputPath, s.cfg.OutputDelimiter)
	})

	rowsOut := 0
	if status == StatusOK {
		rowsOut = cleaned.Len()
		s.mu.Lock()
		s.state = StateExported
		s.mu.Unlock()
	}

	s.finishRun(run, "export", status, cleaned.Len(), rowsOut, start)
}

// guard keeps unexpected stage failures from crashing the scheduler. The
// snapshot is only updated after a stage returns, so a panic leaves the
// pre-stage state in place.
func (s *Scheduler) guard(stage string, fn func() Status) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: %s: unexpected failure: %v\n%s", stage, r, debug.Stack())
			status = StatusFailed
		}
	}()
	return fn()
}

func (s *Scheduler) beginRun(stage string) *store.StageRun {
	if s.store == nil {
		return nil
	}
	run, err := s.store.StartStageRun(stage)
	if err != nil {
		log.Printf("scheduler: record %s run: %v", stage, err)
		return nil
	}
	return run
}

func (s *Scheduler) finishRun(run *store.StageRun, stage string, status Status, rowsIn, rowsOut int, start time.Time) {
	metrics.StageRunsTotal.WithLabelValues(stage, string(status)).Inc()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	if run == nil {
		return
	}
	run.Status = string(status)
	run.RowsIn = sql.NullInt64{Int64: int64(rowsIn), Valid: true}
	run.RowsOut = sql.NullInt64{Int64: int64(rowsOut), Valid: true}
	if err := s.store.CompleteStageRun(run); err != nil {
		log.Printf("scheduler: complete %s run: %v", stage, err)
	}
}
