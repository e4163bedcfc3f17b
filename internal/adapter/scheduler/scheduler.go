package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"crontab/internal/crontab"
	"crontab/internal/executor"
	"crontab/internal/shared"
)

// DefaultInterval - интервал между тиками по умолчанию.
const DefaultInterval = time.Minute

// Причины пропуска задачи.
const (
	ReasonNotDue       = "not due"
	ReasonAlreadyFired = "already fired"
)

// ErrAlreadyRunning возвращается повторным вызовом Run.
var ErrAlreadyRunning = errors.New("scheduler: already running")

// State - состояние цикла планировщика.
type State int32

const (
	// StateIdle - между тиками.
	StateIdle State = iota
	// StateTicking - идёт обход реестра.
	StateTicking
)

func (s State) String() string {
	if s == StateTicking {
		return "ticking"
	}
	return "idle"
}

// RefirePolicy определяет, может ли задача сработать повторно в том же моменте расписания.
type RefirePolicy int

const (
	// SkipFired пропускает задачу, если она уже запускалась в текущую минуту
	// (секунду для выражений с секундами). По умолчанию.
	SkipFired RefirePolicy = iota
	// AllowRefire запускает задачу на каждом тике, пока она due.
	AllowRefire
)

// Hooks содержит необязательные хуки для наблюдаемости.
type Hooks struct {
	OnTickStart  func(at time.Time)
	OnTickFinish func(at time.Time, outcomes []crontab.Outcome, duration time.Duration)
	OnJobFinish  func(outcome crontab.Outcome)
}

// Config содержит конфигурацию планировщика.
//
// Interval отсчитывается от начала предыдущего тика. Clock по умолчанию time.Now.
// Concurrency > 1 запускает due-задачи одного тика параллельно.
type Config struct {
	Registry    *crontab.Registry
	Executors   executor.Executor
	Reporter    Reporter
	Interval    time.Duration
	Clock       func() time.Time
	Logger      *slog.Logger
	Hooks       Hooks
	Refire      RefirePolicy
	Concurrency int
}

// Scheduler - цикл демона: на каждом тике проверяет все задачи реестра и
// запускает те, что due.
type Scheduler struct {
	registry    *crontab.Registry
	executors   executor.Executor
	reporter    Reporter
	interval    time.Duration
	clock       func() time.Time
	logger      *slog.Logger
	hooks       Hooks
	refire      RefirePolicy
	concurrency int

	state   atomic.Int32
	started atomic.Bool
	tickMu  sync.Mutex

	mu       sync.Mutex
	fired    map[string]time.Time
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New создает планировщик. Registry и Executors обязательны.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}
	registry := cfg.Registry
	if registry == nil {
		registry, _ = crontab.NewRegistry()
	}

	return &Scheduler{
		registry:    registry,
		executors:   cfg.Executors,
		reporter:    reporter,
		interval:    interval,
		clock:       clock,
		logger:      logger.With("component", "scheduler"),
		hooks:       cfg.Hooks,
		refire:      cfg.Refire,
		concurrency: cfg.Concurrency,
		fired:       make(map[string]time.Time),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// State возвращает текущее состояние цикла.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Interval возвращает период тиков.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run блокируется до отмены ctx или вызова Stop. Первый тик выполняется сразу,
// следующие на границах Interval по настенным часам. Если тик перешагнул
// границу, следующий стартует сразу после него. Начатый тик всегда доводится
// до конца.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	s.logger.Info("scheduler started", "jobs", s.registry.Len(), "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", "reason", ctx.Err())
			return nil
		case <-s.stop:
			s.logger.Info("scheduler stopped", "reason", "stop requested")
			return nil
		case <-timer.C:
		}
		// Остановка, пришедшая одновременно с таймером, побеждает.
		if s.stopping(ctx) {
			s.logger.Info("scheduler stopped")
			return nil
		}

		at := s.clock()
		s.Tick(ctx, at)

		wait := s.nextDelay(at, s.clock())
		if wait == 0 {
			s.logger.Warn("tick overran interval", "tick", at, "interval", s.interval)
		}
		timer.Reset(wait)
	}
}

// nextDelay возвращает паузу до следующей границы интервала по настенным
// часам после тика at. Граница считается от at, а не от момента завершения,
// поэтому ранний или поздний таймер не пропускает минуту. Если граница уже
// прошла, возвращается 0.
func (s *Scheduler) nextDelay(at, now time.Time) time.Duration {
	next := at.Truncate(s.interval).Add(s.interval)
	wait := next.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Stop останавливает цикл и ждет завершения текущего тика.
func (s *Scheduler) Stop() {
	_ = s.StopContext(context.Background())
}

// StopContext останавливает цикл с учетом дедлайна ctx. Если дедлайн истек
// раньше, чем завершился тик, возвращается ошибка контекста; тик все равно
// будет доведен до конца.
func (s *Scheduler) StopContext(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded, tick still in progress")
		return ctx.Err()
	}
}

func (s *Scheduler) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Tick выполняет один обход реестра в момент now и возвращает ровно один
// исход на каждую задачу в порядке реестра. Каждый исход передается в Reporter.
// Одновременно выполняется не более одного тика.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []crontab.Outcome {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.state.Store(int32(StateTicking))
	defer s.state.Store(int32(StateIdle))

	if s.hooks.OnTickStart != nil {
		s.hooks.OnTickStart(now)
	}
	start := time.Now()

	// Задачи не прерываются при остановке демона: отмена учитывается только между тиками.
	runCtx := context.WithoutCancel(ctx)

	jobs := s.registry.Jobs()
	outcomes := make([]crontab.Outcome, len(jobs))

	if s.concurrency > 1 {
		g := new(errgroup.Group)
		g.SetLimit(s.concurrency)
		for i, job := range jobs {
			g.Go(func() error {
				outcomes[i] = s.evaluate(runCtx, job, now)
				return nil
			})
		}
		_ = g.Wait()
		for _, o := range outcomes {
			s.report(runCtx, o)
		}
	} else {
		for i, job := range jobs {
			outcomes[i] = s.evaluate(runCtx, job, now)
			s.report(runCtx, outcomes[i])
		}
	}

	duration := time.Since(start)
	s.logger.Debug("tick finished", "at", now, "jobs", len(jobs), "duration", duration)
	if s.hooks.OnTickFinish != nil {
		s.hooks.OnTickFinish(now, outcomes, duration)
	}
	return outcomes
}

// RunJob запускает задачу немедленно, игнорируя расписание и отметку срабатывания.
func (s *Scheduler) RunJob(ctx context.Context, name string) (crontab.Outcome, error) {
	job, ok := s.registry.Get(name)
	if !ok {
		return crontab.Outcome{}, fmt.Errorf("%w: no job named %q", shared.ErrInvalidJob, name)
	}
	o := s.execute(ctx, job, s.clock())
	s.report(ctx, o)
	return o, nil
}

// evaluate решает судьбу одной задачи в тике.
func (s *Scheduler) evaluate(ctx context.Context, job *crontab.Job, now time.Time) crontab.Outcome {
	schedule := job.Schedule()
	if !schedule.IsDue(now) {
		return crontab.Skipped(job, now, ReasonNotDue)
	}
	if s.refire == SkipFired && !s.markFired(job.Name(), schedule.Instant(now)) {
		return crontab.Skipped(job, now, ReasonAlreadyFired)
	}
	return s.execute(ctx, job, now)
}

// markFired сдвигает отметку задачи на instant. Возвращает false, если
// задача уже срабатывала в этот или более поздний момент.
func (s *Scheduler) markFired(name string, instant time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.fired[name]; ok && !instant.After(last) {
		return false
	}
	s.fired[name] = instant
	return true
}

// execute запускает задачу; ошибка и паника превращаются в Failed.
func (s *Scheduler) execute(ctx context.Context, job *crontab.Job, now time.Time) (outcome crontab.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", shared.ErrHandlerError, r)
			outcome = crontab.Failed(job, now, err, nil, time.Since(start))
		}
		if s.hooks.OnJobFinish != nil {
			s.hooks.OnJobFinish(outcome)
		}
	}()

	if s.executors == nil {
		return crontab.Failed(job, now, fmt.Errorf("%w: no executors configured", shared.ErrInvalidJob), nil, 0)
	}

	res, err := s.executors.Run(ctx, job)
	if err != nil {
		return crontab.Failed(job, now, err, res.Output, time.Since(start))
	}
	return crontab.Executed(job, now, res.ExitStatus, res.Output, time.Since(start))
}

// report передает исход в Reporter; паника репортера не должна уронить цикл.
func (s *Scheduler) report(ctx context.Context, o crontab.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reporter panicked", "job", o.Job.Name(), "panic", r)
		}
	}()
	s.reporter.Report(ctx, o)
}
