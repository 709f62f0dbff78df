// Package scheduler runs the screening pipeline on a cron schedule and pushes
// each report to the configured notifier.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/notifier"
	"B3Sentinel/internal/pipeline"
	"B3Sentinel/internal/report"
)

// Screener runs one screening pass.
type Screener interface {
	Screen(ctx context.Context, cash float64) (pipeline.ScreenResult, error)
}

// Pruner drops stale cache entries.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler manages the watch-mode cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Screener Screener
	Notifier notifier.Notifier // nil logs reports only
	Pruner   Pruner            // nil disables cache pruning
	Ctx      context.Context

	cash     float64
	maxAge   time.Duration
	renderer *report.Renderer
	log      zerolog.Logger

	mu   sync.Mutex
	last string
}

// NewScheduler creates a new Scheduler screening with cash on every run.
func NewScheduler(ctx context.Context, s Screener, n notifier.Notifier, cash float64, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Screener: s,
		Notifier: n,
		Ctx:      ctx,
		cash:     cash,
		renderer: report.Plain(),
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// WithPruner enables a daily cache prune of entries older than maxAge.
func (s *Scheduler) WithPruner(p Pruner, maxAge time.Duration) *Scheduler {
	s.Pruner = p
	s.maxAge = maxAge
	return s
}

// RegisterAll registers the screening task and, when a pruner is set, the daily prune.
func (s *Scheduler) RegisterAll(screenCron string) error {
	if _, err := s.Cron.AddFunc(screenCron, s.screenTask); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	if s.Pruner != nil {
		if _, err := s.Cron.AddFunc("0 0 3 * * *", s.pruneTask); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the screening task immediately.
func (s *Scheduler) RunNow() {
	s.screenTask()
}

// Last returns the most recent rendered report.
func (s *Scheduler) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) screenTask() {
	s.log.Info().Float64("cash", s.cash).Msg("running screen task")
	res, err := s.Screener.Screen(s.Ctx, s.cash)
	if err != nil {
		s.log.Info().Err(err).Str("run_id", res.RunID).Msg("screen finished without a pick")
	}
	text := s.renderer.Screen(res, err)

	s.mu.Lock()
	s.last = text
	s.mu.Unlock()

	s.trySend(notifier.Preformatted(text))
}

func (s *Scheduler) pruneTask() {
	n, err := s.Pruner.Prune(s.Ctx, s.maxAge)
	if err != nil {
		s.log.Error().Err(err).Msg("prune cache")
		return
	}
	s.log.Info().Int64("removed", n).Msg("cache pruned")
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/triagem", "/screen":
		cash := s.cash
		if len(fields) > 1 {
			v, err := collector.ParseNumber(fields[1])
			if err != nil || v <= 0 {
				return "Valor inválido. Uso: /triagem 1500"
			}
			cash = v
		}
		res, err := s.Screener.Screen(ctx, cash)
		return notifier.Preformatted(s.renderer.Screen(res, err))
	case "/ultimo", "/last":
		if last := s.Last(); last != "" {
			return notifier.Preformatted(last)
		}
		return "Nenhuma triagem executada ainda."
	default:
		return "Comandos disponíveis:\n/triagem [valor]\n/ultimo"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if tn, ok := s.Notifier.(*notifier.TelegramNotifier); ok {
		if err := tn.SendWithRetry(s.Ctx, text, 3); err != nil {
			s.log.Error().Err(err).Msg("send notification")
		}
		return
	}
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
