package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"demand-flex/internal/config"
	"demand-flex/internal/data"
	"demand-flex/internal/optmodel"
	"demand-flex/internal/runner"
	"demand-flex/internal/store"
	"demand-flex/internal/summary"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	switch os.Args[1] {
	case "run":
		code = cmdRun(ctx, os.Args[2:], optmodel.VariantDispatch)
	case "invest":
		code = cmdRun(ctx, os.Args[2:], optmodel.VariantInvestment)
	case "sweep":
		code = cmdSweep(ctx, os.Args[2:])
	case "summary":
		code = cmdSummary(ctx, os.Args[2:])
	case "scenarios":
		code = cmdScenarios(os.Args[2:])
	case "runs":
		code = cmdRuns(ctx, os.Args[2:])
	default:
		usage()
		code = 2
	}
	stop()
	os.Exit(code)
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --config examples/run.yaml --scenario question_1a --out results --export csv,xlsx")
	fmt.Println("  cli invest --config examples/run.yaml --scenario question_1a --capital-cost 0.5")
	fmt.Println("  cli sweep --config examples/run.yaml --scenario question_1a --costs 0.1,0.5,1")
	fmt.Println("  cli summary --data data")
	fmt.Println("  cli scenarios --data data")
	fmt.Println("  cli runs --scenario question_1a --limit 20")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run solves the dispatch model (Q1), invest the battery investment model (Q2)")
	fmt.Println("  - summary ranks scenarios by optimal daily cost")
	fmt.Println("  - runs needs DATABASE_URL (or database_url in the config)")
}

// common holds the flags every solving subcommand accepts.
type common struct {
	cfgPath   *string
	dataDir   *string
	scenarios *string
	outDir    *string
	exports   *string
}

func addCommon(fs *flag.FlagSet) common {
	return common{
		cfgPath:   fs.String("config", "", "Path to YAML config (optional)"),
		dataDir:   fs.String("data", "", "Data directory (overrides config and DATA_DIR)"),
		scenarios: fs.String("scenario", "", "Comma-separated scenarios (default: config scenarios, else all complete)"),
		outDir:    fs.String("out", "", "Output directory for exports"),
		exports:   fs.String("export", "", "Comma-separated export formats: csv,xlsx,pdf"),
	}
}

// load reads the config and applies flag overrides.
func (c common) load() (*config.Config, error) {
	cfg := config.Default()
	if *c.cfgPath != "" {
		loaded, err := config.Load(*c.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *c.dataDir != "" {
		cfg.DataDir = *c.dataDir
	}
	if *c.outDir != "" {
		cfg.OutputDir = *c.outDir
	}
	if *c.exports != "" {
		cfg.Exports = splitList(*c.exports)
	}
	if *c.scenarios != "" {
		cfg.Scenarios = splitList(*c.scenarios)
	}
	return cfg, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// scenarioList returns the configured scenarios, or every complete one.
func scenarioList(cfg *config.Config) ([]string, error) {
	if len(cfg.Scenarios) > 0 {
		return cfg.Scenarios, nil
	}
	infos, err := data.ListScenarios(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, info := range infos {
		if info.Complete {
			out = append(out, info.Name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no complete scenarios under %s", cfg.DataDir)
	}
	return out, nil
}

// newRunner wires the optional run store when a database is configured.
func newRunner(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*runner.Runner, func(), error) {
	opts := []runner.Option{runner.WithCache(data.NewDatasetCache(0))}
	cleanup := func() {}
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = db.Close() }
		s := store.NewRunStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		opts = append(opts, runner.WithStore(s))
	}
	return runner.New(cfg, logger, opts...), cleanup, nil
}

func cmdRun(ctx context.Context, args []string, variant optmodel.Variant) int {
	fs := flag.NewFlagSet(string(variant), flag.ExitOnError)
	c := addCommon(fs)
	withStorage := fs.Bool("with-storage", false, "Let dispatch operate the consumer's battery")
	capitalCost := fs.Float64("capital-cost", -1, "Capital cost in DKK/kWh/day (investment only; default from config)")
	moduleSize := fs.Float64("module-size", 0, "Size capacity in whole modules of this many kWh (investment only)")
	_ = fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	cfg.Variant = string(variant)
	cfg.Dispatch.IncludeStorage = cfg.Dispatch.IncludeStorage || *withStorage
	if *capitalCost >= 0 {
		cfg.Investment.CapitalCostDKKPerKWh = *capitalCost
	}
	if *moduleSize > 0 {
		cfg.Investment.ModuleSizeKWh = *moduleSize
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	logger := newLogger(cfg.LogLevel)

	scenarios, err := scenarioList(cfg)
	if err != nil {
		logger.Errorf("Failed to list scenarios: %v", err)
		return 1
	}
	r, cleanup, err := newRunner(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("Failed to open run store: %v", err)
		return 1
	}
	defer cleanup()

	started := time.Now()
	outcomes := r.RunAll(ctx, scenarios)
	for _, o := range outcomes {
		if o.Err != nil || o.Summary == nil {
			continue
		}
		o.Summary.Print(os.Stdout)
		for _, p := range o.Exports {
			fmt.Printf("Wrote %s\n", p)
		}
	}
	if len(outcomes) > 1 {
		printRanking(summary.Rank(runner.Summaries(outcomes)))
	}

	failed := runner.Failed(outcomes)
	logger.Infof("%d scenario(s) finished in %v, %d failed", len(outcomes), time.Since(started).Round(time.Millisecond), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func cmdSweep(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	c := addCommon(fs)
	costs := fs.String("costs", "", "Comma-separated capital costs in DKK/kWh/day (default: investment.sweep)")
	_ = fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	cfg.Variant = string(optmodel.VariantInvestment)
	if *costs != "" {
		values, err := parseFloats(*costs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--costs: %v\n", err)
			return 2
		}
		cfg.Investment.Sweep = values
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	logger := newLogger(cfg.LogLevel)

	scenarios, err := scenarioList(cfg)
	if err != nil {
		logger.Errorf("Failed to list scenarios: %v", err)
		return 1
	}
	r, cleanup, err := newRunner(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("Failed to open run store: %v", err)
		return 1
	}
	defer cleanup()

	code := 0
	for _, s := range scenarios {
		points, err := r.Sweep(ctx, s, cfg.Investment.Sweep)
		if err != nil {
			logger.WithField("scenario", s).Errorf("Sweep failed: %v", err)
			code = 1
			if len(points) == 0 {
				continue
			}
		}
		fmt.Printf("\nScenario %s\n", s)
		fmt.Printf("%-14s %-12s %-8s %-12s %-12s %-12s\n", "capex/kWh/day", "size kWh", "modules", "opex", "capex", "total")
		for _, row := range runner.SweepRows(points) {
			if row.Error != "" {
				fmt.Printf("%-14.4f error: %s\n", row.CapitalCostDKKPerKWh, row.Error)
				code = 1
				continue
			}
			fmt.Printf("%-14.4f %-12.3f %-8d %-12.3f %-12.3f %-12.3f\n",
				row.CapitalCostDKKPerKWh,
				row.OptimalBatterySizeKWh,
				row.Modules,
				row.OperatingCostDKK,
				row.DailyCapexDKK,
				row.ObjectiveDKK,
			)
		}
	}
	return code
}

func cmdSummary(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	c := addCommon(fs)
	_ = fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	cfg.Variant = string(optmodel.VariantDispatch)
	// Ranking only; exports are left to run.
	cfg.OutputDir = ""
	logger := newLogger(cfg.LogLevel)
	logger.SetLevel(logrus.WarnLevel)

	scenarios, err := scenarioList(cfg)
	if err != nil {
		logger.Errorf("Failed to list scenarios: %v", err)
		return 1
	}
	outcomes := runner.New(cfg, logger).RunAll(ctx, scenarios)
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-24s failed: %v\n", o.Scenario, o.Err)
		}
	}
	printRanking(summary.Rank(runner.Summaries(outcomes)))
	if runner.Failed(outcomes) > 0 {
		return 1
	}
	return 0
}

func cmdScenarios(args []string) int {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	dataDir := fs.String("data", data.GetDefaultDataDir(), "Data directory")
	_ = fs.Parse(args)

	infos, err := data.ListScenarios(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list scenarios: %v\n", err)
		return 1
	}
	fmt.Printf("%-24s %-9s %s\n", "scenario", "complete", "files")
	for _, info := range infos {
		fmt.Printf("%-24s %-9t %s\n", info.Name, info.Complete, strings.Join(info.Files, ","))
	}
	return 0
}

func cmdRuns(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	scenario := fs.String("scenario", "", "Only runs of this scenario")
	limit := fs.Int("limit", 20, "Maximum number of runs")
	_ = fs.Parse(args)

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		return 2
	}
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		return 1
	}
	defer db.Close()

	runs, err := store.NewRunStore(db).ListRuns(ctx, *scenario, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 1
	}
	fmt.Printf("%-36s %-20s %-11s %-10s %-12s %s\n", "id", "scenario", "variant", "status", "objective", "created")
	for _, r := range runs {
		fmt.Printf("%-36s %-20s %-11s %-10s %-12.3f %s\n",
			r.ID, r.Scenario, r.Variant, r.Status, r.ObjectiveDKK, r.CreatedAt.Format(time.RFC3339))
	}
	return 0
}

func printRanking(ranked []summary.Ranked) {
	fmt.Printf("\n%-4s %-24s %-12s %-10s %-10s %-10s %-12s\n", "rank", "scenario", "cost DKK", "import", "export", "p95-p05", "oracle DKK")
	for _, r := range ranked {
		fmt.Printf(
			"%-4d %-24s %-12.3f %-10.2f %-10.2f %-10.3f %-12.3f\n",
			r.Rank,
			r.Scenario,
			r.ObjectiveDKK,
			r.KPIs.TotalGridImportKWh,
			r.KPIs.TotalGridExportKWh,
			r.Prices.SpreadP95P05,
			r.Prices.OracleArbitrageDKK,
		)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, p := range splitList(s) {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
