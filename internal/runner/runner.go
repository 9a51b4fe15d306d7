package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"demand-flex/internal/config"
	"demand-flex/internal/data"
	"demand-flex/internal/lp"
	"demand-flex/internal/metrics"
	"demand-flex/internal/model"
	"demand-flex/internal/optmodel"
	"demand-flex/internal/report"
	"demand-flex/internal/store"
	"demand-flex/internal/summary"
)

// RunSaver persists a finished run. *store.RunStore satisfies it.
type RunSaver interface {
	SaveRun(ctx context.Context, rec store.RunRecord) (string, error)
}

// Runner drives scenarios through load, process, build, solve, summarise
// and export. Scenarios run one after another.
type Runner struct {
	cfg   *config.Config
	log   logrus.FieldLogger
	cache *data.DatasetCache
	store RunSaver
}

type Option func(*Runner)

// WithCache shares a dataset cache between runners.
func WithCache(c *data.DatasetCache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithStore persists every successful run.
func WithStore(s RunSaver) Option {
	return func(r *Runner) { r.store = s }
}

func New(cfg *config.Config, logger logrus.FieldLogger, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Runner{cfg: cfg, log: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is the record of one scenario run. Err is set when any step
// failed; the other fields hold whatever was produced before the failure.
type Outcome struct {
	Scenario string
	Variant  optmodel.Variant
	Inputs   *model.Inputs
	Result   *optmodel.Result
	Summary  *summary.Summary
	Exports  []string
	RunID    string
	Duration time.Duration
	Err      error
}

// Prepare loads and processes a scenario into model inputs. A storage
// override from the config replaces the consumer's battery.
func (r *Runner) Prepare(scenario string, priceOverride []float64) (*model.Inputs, error) {
	var (
		ds  *model.Dataset
		err error
	)
	if r.cache != nil {
		ds, err = r.cache.Load(r.cfg.DataDir, scenario)
	} else {
		ds, err = data.LoadScenario(r.cfg.DataDir, scenario)
	}
	if err != nil {
		return nil, err
	}
	opts := r.cfg.ProcessOptions()
	opts.PriceOverride = priceOverride
	in, err := data.Process(ds, opts)
	if err != nil {
		return nil, err
	}
	if r.cfg.HasStorageOverride() {
		st := r.cfg.Storage.ToModelParams()
		in.System.Storage = &st
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q with storage override: %w", scenario, err)
		}
	}
	return in, nil
}

// Solve builds and solves one model variant on prepared inputs.
func (r *Runner) Solve(ctx context.Context, in *model.Inputs, variant optmodel.Variant, capitalCost float64) (*optmodel.Result, error) {
	started := time.Now()
	var (
		res *optmodel.Result
		err error
	)
	switch variant {
	case optmodel.VariantDispatch:
		res, err = optmodel.SolveDispatch(ctx, in, r.cfg.DispatchOptions())
	case optmodel.VariantInvestment:
		res, err = optmodel.SolveInvestment(ctx, in, r.cfg.InvestmentOptions(capitalCost))
	default:
		err = fmt.Errorf("unknown variant %q", variant)
	}
	nodes := 0
	if res != nil {
		nodes = res.Nodes
	}
	metrics.ObserveSolve(string(variant), nodes, time.Since(started), err)
	if err != nil {
		return nil, err
	}
	metrics.SetObjective(in.Scenario, string(variant), res.ObjectiveDKK)
	if res.Investment != nil {
		metrics.SetBatterySize(in.Scenario, res.Investment.OptimalBatterySizeKWh)
	}
	return res, nil
}

// Run executes the configured variant for one scenario. Failures are
// returned in Outcome.Err, never panicked.
func (r *Runner) Run(ctx context.Context, scenario string) Outcome {
	return r.RunWithPrices(ctx, scenario, nil)
}

// RunWithPrices is Run with the bus price series replaced by prices when
// prices is non-empty.
func (r *Runner) RunWithPrices(ctx context.Context, scenario string, prices []float64) Outcome {
	started := time.Now()
	variant := optmodel.Variant(r.cfg.Variant)
	out := Outcome{Scenario: scenario, Variant: variant}
	log := r.log.WithFields(logrus.Fields{"scenario": scenario, "variant": variant})
	defer func() {
		out.Duration = time.Since(started)
		metrics.IncRun(out.Err)
		if out.Err != nil {
			log.Errorf("Scenario failed after %v: %v", out.Duration, out.Err)
		} else {
			log.Infof("Scenario finished in %v", out.Duration)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	log.Info("[1/4] Loading and processing data")
	in, err := r.Prepare(scenario, prices)
	if err != nil {
		out.Err = err
		return out
	}
	out.Inputs = in

	log.Info("[2/4] Building and solving the optimization model")
	res, err := r.Solve(ctx, in, variant, r.cfg.Investment.CapitalCostDKKPerKWh)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res
	if res.Status != lp.StatusOptimal {
		log.Warnf("Solver stopped with status %s; the schedule is the best one found", res.Status)
	}

	log.Info("[3/4] Summarising results")
	s, err := summary.Compute(res, in)
	if err != nil {
		out.Err = err
		return out
	}
	out.Summary = s

	log.Info("[4/4] Exporting results")
	out.Exports, err = r.export(s, res)
	if err != nil {
		out.Err = err
		return out
	}
	out.RunID, err = r.persist(ctx, s, res)
	if err != nil {
		out.Err = err
	}
	return out
}

// RunAll runs every scenario in order. A failing scenario does not stop
// the others; a cancelled context marks the remaining ones as failed.
func (r *Runner) RunAll(ctx context.Context, scenarios []string) []Outcome {
	out := make([]Outcome, 0, len(scenarios))
	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			out = append(out, Outcome{Scenario: s, Variant: optmodel.Variant(r.cfg.Variant), Err: err})
			continue
		}
		out = append(out, r.Run(ctx, s))
	}
	return out
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Summaries collects the summaries of successful outcomes.
func Summaries(outcomes []Outcome) []summary.Summary {
	var out []summary.Summary
	for _, o := range outcomes {
		if o.Err == nil && o.Summary != nil {
			out = append(out, *o.Summary)
		}
	}
	return out
}

func (r *Runner) export(s *summary.Summary, res *optmodel.Result) ([]string, error) {
	if r.cfg.OutputDir == "" || len(r.cfg.Exports) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	base := filepath.Join(r.cfg.OutputDir, fmt.Sprintf("%s_%s", s.Scenario, s.Variant))
	var written []string
	for _, format := range r.cfg.Exports {
		path := base + "." + format
		var err error
		switch format {
		case "csv":
			err = report.WriteScheduleCSV(path, res.Hourly)
		case "xlsx":
			err = report.WriteXLSX(path, s, res.Hourly)
		case "pdf":
			err = report.WritePDF(path, s, res.Hourly)
		default:
			err = fmt.Errorf("unknown export format %q", format)
		}
		metrics.IncExport(format, err)
		if err != nil {
			return written, fmt.Errorf("export %s: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (r *Runner) persist(ctx context.Context, s *summary.Summary, res *optmodel.Result) (string, error) {
	if r.store == nil {
		return "", nil
	}
	rec := store.RunRecord{
		Scenario:     s.Scenario,
		Variant:      string(s.Variant),
		Status:       string(res.Status),
		ObjectiveDKK: res.ObjectiveDKK,
		Summary:      s,
		Schedule:     res.Hourly,
	}
	if res.Investment != nil {
		size := res.Investment.OptimalBatterySizeKWh
		rec.BatterySizeKWh = &size
	}
	id, err := r.store.SaveRun(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("persist run: %w", err)
	}
	return id, nil
}
