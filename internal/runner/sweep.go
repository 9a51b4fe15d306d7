package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"demand-flex/internal/optmodel"
	"demand-flex/internal/report"
)

// ErrNoCapitalCosts is returned by Sweep without any cost to evaluate.
var ErrNoCapitalCosts = errors.New("sweep needs at least one capital cost")

// SweepPoint is the investment decision at one capital cost.
type SweepPoint struct {
	CapitalCostDKKPerKWh float64
	Result               *optmodel.Result
	Err                  error
}

// Sweep re-solves the investment model of one scenario for each capital
// cost. Inputs are prepared once; a failing point does not stop the sweep.
func (r *Runner) Sweep(ctx context.Context, scenario string, capitalCosts []float64) ([]SweepPoint, error) {
	return r.SweepWithPrices(ctx, scenario, nil, capitalCosts)
}

// SweepWithPrices is Sweep with the bus price series replaced by prices
// when prices is non-empty.
func (r *Runner) SweepWithPrices(ctx context.Context, scenario string, prices, capitalCosts []float64) ([]SweepPoint, error) {
	if len(capitalCosts) == 0 {
		return nil, ErrNoCapitalCosts
	}
	in, err := r.Prepare(scenario, prices)
	if err != nil {
		return nil, err
	}
	log := r.log.WithFields(logrus.Fields{"scenario": scenario, "variant": optmodel.VariantInvestment})

	points := make([]SweepPoint, 0, len(capitalCosts))
	for _, cost := range capitalCosts {
		if err := ctx.Err(); err != nil {
			return points, err
		}
		p := SweepPoint{CapitalCostDKKPerKWh: cost}
		p.Result, p.Err = r.Solve(ctx, in, optmodel.VariantInvestment, cost)
		if p.Err != nil {
			log.Warnf("Capital cost %.4f failed: %v", cost, p.Err)
		} else {
			log.Infof("Capital cost %.4f DKK/kWh/day: %.3f kWh", cost, p.Result.Investment.OptimalBatterySizeKWh)
		}
		points = append(points, p)
	}

	if r.cfg.OutputDir != "" {
		if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
			return points, fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(r.cfg.OutputDir, scenario+"_sweep.csv")
		if err := report.WriteSweepCSV(path, SweepRows(points)); err != nil {
			return points, fmt.Errorf("export sweep: %w", err)
		}
	}
	return points, nil
}

// SweepRows flattens sweep points into report rows.
func SweepRows(points []SweepPoint) []report.SweepRow {
	rows := make([]report.SweepRow, 0, len(points))
	for _, p := range points {
		row := report.SweepRow{CapitalCostDKKPerKWh: p.CapitalCostDKKPerKWh}
		if p.Err != nil {
			row.Error = p.Err.Error()
		} else if p.Result != nil {
			row.OperatingCostDKK = p.Result.OperatingCostDKK
			row.ObjectiveDKK = p.Result.ObjectiveDKK
			if inv := p.Result.Investment; inv != nil {
				row.OptimalBatterySizeKWh = inv.OptimalBatterySizeKWh
				row.Modules = inv.Modules
				row.DailyCapexDKK = inv.DailyCapexDKK
			}
		}
		rows = append(rows, row)
	}
	return rows
}
