package arena

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/SignalLab/models"
)

// Progress is an externally observable sweep counter. The zero value is
// ready to use.
type Progress struct {
	running atomic.Int64
	done    atomic.Int64
	total   atomic.Int64
	label   atomic.Value // string
}

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Running      int    `json:"running"`
	Done         int    `json:"done"`
	Total        int    `json:"total"`
	CurrentLabel string `json:"current_label"`
}

// Snapshot reads the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	label, _ := p.label.Load().(string)
	return ProgressSnapshot{
		Running:      int(p.running.Load()),
		Done:         int(p.done.Load()),
		Total:        int(p.total.Load()),
		CurrentLabel: label,
	}
}

func (p *Progress) start(total int) {
	p.total.Store(int64(total))
	p.done.Store(0)
	p.running.Store(0)
	p.label.Store("")
}

func (p *Progress) begin(label string) {
	p.running.Add(1)
	p.label.Store(label)
}

func (p *Progress) finish() {
	p.running.Add(-1)
	p.done.Add(1)
}

// SweepRequest describes a symbols × intervals matrix for one module.
type SweepRequest struct {
	StrategyName   string
	Module         []byte
	Symbols        []string
	Intervals      []string
	Days           int
	InitialCapital float64
}

// Sweeper runs a module across many candle series concurrently.
type Sweeper struct {
	runner  *Runner
	source  models.CandleSource
	workers int
	logger  zerolog.Logger
}

// NewSweeper creates a sweeper running at most workers jobs at a time.
func NewSweeper(runner *Runner, source models.CandleSource, workers int) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	return &Sweeper{
		runner:  runner,
		source:  source,
		workers: workers,
		logger:  log.With().Str("component", "arena_sweep").Logger(),
	}
}

// Sweep runs every symbol × interval combination and returns the reports
// in matrix order (symbols outer, intervals inner). Fetch and sandbox
// failures are recorded per report; cancellation is checked between runs
// and returns the reports finished so far with the context error.
func (s *Sweeper) Sweep(ctx context.Context, req SweepRequest, progress *Progress) ([]Report, error) {
	if progress == nil {
		progress = &Progress{}
	}

	type combo struct{ symbol, interval string }
	var combos []combo
	for _, sym := range req.Symbols {
		for _, iv := range req.Intervals {
			combos = append(combos, combo{sym, iv})
		}
	}

	progress.start(len(combos))
	reports := make([]Report, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, cb := range combos {
		i, cb := i, cb
		label := fmt.Sprintf("%s %s", cb.symbol, cb.interval)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			progress.begin(label)
			defer progress.finish()

			candles, err := s.source.Candles(ctx, cb.symbol, cb.interval, req.Days)
			if err == nil && len(candles) == 0 {
				err = models.ErrNoCandles
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("label", label).Msg("no candles for arena run")
				reports[i] = Report{
					Label:   label,
					Fault:   fmt.Errorf("fetching candles: %w", err),
					Metrics: models.ArenaMetrics{InitialCapital: req.InitialCapital, FinalEquity: req.InitialCapital},
				}
				return nil
			}

			reports[i] = s.runner.Run(ctx, Job{
				Label:          label,
				StrategyName:   req.StrategyName,
				Module:         req.Module,
				Candles:        candles,
				InitialCapital: req.InitialCapital,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return completed(reports), err
	}

	s.logger.Info().Int("runs", len(combos)).Msg("arena sweep completed")
	return reports, nil
}

// completed drops reports of runs that never started.
func completed(reports []Report) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if r.Label != "" {
			out = append(out, r)
		}
	}
	return out
}
