package arena

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero/api"

	"github.com/Alias1177/SignalLab/internal/calculate"
	"github.com/Alias1177/SignalLab/internal/sandbox"
	"github.com/Alias1177/SignalLab/models"
)

const (
	batchExport = "process_batch"

	pairBytes   = 16 // [close, indicator] f64 pair
	signalBytes = 4  // i32 signal

	// keeps input+output addressable with 32-bit offsets
	maxBatchCandles = (1<<32 - 1) / (pairBytes + signalBytes)
)

// Batch signal values.
const (
	SignalSell int32 = -1
	SignalHold int32 = 0
	SignalBuy  int32 = 1
)

// Runner executes batch modules.
type Runner struct {
	host   *sandbox.Host
	logger zerolog.Logger
}

// NewRunner creates a runner on host.
func NewRunner(host *sandbox.Host) *Runner {
	return &Runner{
		host:   host,
		logger: log.With().Str("component", "arena").Logger(),
	}
}

// RunBatch computes the indicator once, passes [close, indicator] pairs for
// every candle to process_batch in a single call and returns one signal per
// candle. Undefined indicator values are sent as 0.
func (r *Runner) RunBatch(ctx context.Context, module []byte, candles []models.Candle, ind Indicator) ([]int32, error) {
	n := len(candles)
	if n == 0 {
		return []int32{}, nil
	}
	if n > maxBatchCandles {
		return nil, fmt.Errorf("batch of %d candles exceeds %d", n, maxBatchCandles)
	}

	values := calculate.NzSeries(ind.Compute(candles), 0)
	pairs := make([]float64, 0, n*2)
	for i, c := range candles {
		pairs = append(pairs, c.Close, values[i])
	}

	inst, err := r.host.Instantiate(ctx, module)
	if err != nil {
		return nil, err
	}
	defer inst.Close()

	inputSize := uint32(n * pairBytes)
	if err := inst.EnsureMemory(uint64(n) * (pairBytes + signalBytes)); err != nil {
		return nil, err
	}
	if err := inst.WriteFloat64s(0, pairs); err != nil {
		return nil, err
	}

	if _, err := inst.Call(batchExport, api.EncodeI32(0), api.EncodeI32(int32(inputSize)), api.EncodeI32(int32(n))); err != nil {
		return nil, err
	}

	signals, err := inst.ReadInt32s(inputSize, n)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().Int("candles", n).Str("indicator", ind.Name).Msg("batch processed")
	return signals, nil
}

// Job is a single arena run.
type Job struct {
	Label          string
	StrategyName   string
	Module         []byte
	Candles        []models.Candle
	InitialCapital float64
}

// Report is the outcome of a Job. Fault is set when the sandbox failed;
// the metrics are then empty.
type Report struct {
	Label     string              `json:"label"`
	Indicator string              `json:"indicator"`
	Signals   []int32             `json:"-"`
	Metrics   models.ArenaMetrics `json:"metrics"`
	Fault     error               `json:"-"`
}

// Run selects the indicator, runs the batch and simulates the signals.
func (r *Runner) Run(ctx context.Context, job Job) Report {
	ind := SelectIndicator(job.StrategyName)
	report := Report{Label: job.Label, Indicator: ind.Name}

	candles := models.DedupCandles(job.Candles)
	signals, err := r.RunBatch(ctx, job.Module, candles, ind)
	if err != nil {
		r.logger.Warn().Err(err).Str("label", job.Label).Msg("arena run failed")
		report.Fault = err
		report.Metrics = models.ArenaMetrics{InitialCapital: job.InitialCapital, FinalEquity: job.InitialCapital}
		return report
	}

	report.Signals = signals
	report.Metrics = Simulate(signals, candles, job.InitialCapital)
	return report
}
