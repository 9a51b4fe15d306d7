package optmodel

import (
	"context"
	"errors"
	"fmt"
	"math"

	"demand-flex/internal/lp"
	"demand-flex/internal/model"
)

var ErrMissingStorage = errors.New("investment model needs a storage record for power ratios and efficiencies")

// InvestmentOptions configures the battery sizing model.
type InvestmentOptions struct {
	// CapitalCostDKKPerKWh is the capital cost amortised per day.
	CapitalCostDKKPerKWh float64
	// SOCRatio is the start and end state of charge as a fraction of the
	// chosen capacity. nil selects model.DefaultSOCRatio.
	SOCRatio *float64
	// ModuleSizeKWh > 0 restricts capacity to whole modules (MILP).
	ModuleSizeKWh float64
	// MaxModules caps the module count; 0 means no cap.
	MaxModules int
	// MaxCapacityKWh caps the capacity; 0 means no cap.
	MaxCapacityKWh float64
	LP             lp.Options
}

func (o InvestmentOptions) Validate() error {
	if o.CapitalCostDKKPerKWh < 0 {
		return errors.New("capital cost must be >= 0")
	}
	if o.SOCRatio != nil && (*o.SOCRatio < 0 || *o.SOCRatio > 1) {
		return errors.New("SOC ratio must be in [0, 1]")
	}
	if o.ModuleSizeKWh < 0 || o.MaxModules < 0 || o.MaxCapacityKWh < 0 {
		return errors.New("module size, module count and max capacity must be >= 0")
	}
	return nil
}

// Investment co-optimises battery capacity and daily operation for a fixed
// reference load.
type Investment struct {
	in   *model.Inputs
	opts InvestmentOptions
	b    *builder

	capacity lp.Expr
	modules  *lp.Var
}

// NewInvestment builds the investment model. The consumer's installed
// battery supplies the power-to-energy ratios and efficiencies.
func NewInvestment(in *model.Inputs, opts InvestmentOptions) (*Investment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	st := in.System.Storage
	if st == nil {
		return nil, fmt.Errorf("scenario %q: %w", in.Scenario, ErrMissingStorage)
	}
	if in.Hourly.ReferenceLoadKW == nil {
		return nil, fmt.Errorf("scenario %q: investment model needs a reference load profile", in.Scenario)
	}
	soc := model.DefaultSOCRatio
	if opts.SOCRatio != nil {
		soc = *opts.SOCRatio
	}

	b := newBuilder("BatteryInvestment", in)
	b.fixLoad(in.Hourly.ReferenceLoadKW)

	inv := &Investment{in: in, opts: opts, b: b}
	maxCap := lp.Inf()
	if opts.MaxCapacityKWh > 0 {
		maxCap = opts.MaxCapacityKWh
	}
	if opts.ModuleSizeKWh > 0 {
		maxModules := lp.Inf()
		if opts.MaxModules > 0 {
			maxModules = float64(opts.MaxModules)
		}
		maxModules = math.Min(maxModules, math.Floor(maxCap/opts.ModuleSizeKWh))
		v := b.m.AddVar("battery_modules", 0, maxModules, lp.Integer)
		inv.modules = &v
		inv.capacity = lp.NewExpr(lp.Term{Var: v, Coef: opts.ModuleSizeKWh})
	} else {
		v := b.m.AddVar("battery_capacity", 0, maxCap, lp.Continuous)
		inv.capacity = lp.NewExpr(lp.Term{Var: v, Coef: 1})
	}

	b.storage(storageLimits{
		capacity:            inv.capacity,
		maxCharge:           scaled(inv.capacity, st.ChargeToEnergyRatio()),
		maxDischarge:        scaled(inv.capacity, st.DischargeToEnergyRatio()),
		chargeEfficiency:    st.ChargeEfficiency,
		dischargeEfficiency: st.DischargeEfficiency,
		initialSOC:          soc,
		finalSOC:            soc,
	})
	b.balance()

	obj := b.operatingCost()
	for _, t := range scaled(inv.capacity, opts.CapitalCostDKKPerKWh).Terms {
		obj.Add(t.Var, t.Coef)
	}
	b.m.SetObjective(obj, lp.Minimize)
	return inv, nil
}

func (inv *Investment) Model() *lp.Model { return inv.b.m }

// Solve runs the solver and extracts the schedule and sizing decision.
func (inv *Investment) Solve(ctx context.Context) (*Result, error) {
	sol, err := inv.b.m.Solve(ctx, inv.opts.LP)
	if err != nil {
		return nil, fmt.Errorf("investment %q: %w", inv.in.Scenario, err)
	}
	rows, opex := inv.b.schedule(sol)

	size := clean(inv.capacity.Eval(sol.Values))
	ir := &InvestmentResult{
		CapitalCostDKKPerKWh:  inv.opts.CapitalCostDKKPerKWh,
		OptimalBatterySizeKWh: size,
		DailyCapexDKK:         size * inv.opts.CapitalCostDKKPerKWh,
	}
	if inv.modules != nil {
		ir.Modules = int(math.Round(sol.Value(*inv.modules)))
	}
	return &Result{
		Scenario:         inv.in.Scenario,
		Variant:          VariantInvestment,
		Status:           sol.Status,
		Nodes:            sol.Nodes,
		Hourly:           rows,
		ObjectiveDKK:     sol.Objective,
		OperatingCostDKK: opex,
		Investment:       ir,
	}, nil
}

// SolveInvestment builds and solves the investment model in one call.
func SolveInvestment(ctx context.Context, in *model.Inputs, opts InvestmentOptions) (*Result, error) {
	inv, err := NewInvestment(in, opts)
	if err != nil {
		return nil, err
	}
	return inv.Solve(ctx)
}
