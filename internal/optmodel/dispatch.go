package optmodel

import (
	"context"
	"fmt"

	"demand-flex/internal/lp"
	"demand-flex/internal/model"
)

// DispatchOptions configures the dispatch model.
type DispatchOptions struct {
	// IgnoreStorage solves without the consumer's battery even when one is installed.
	IgnoreStorage bool
	LP            lp.Options
}

// Dispatch is the daily operation model: it schedules the flexible load,
// PV use and grid exchange (and an installed battery, if any) at minimum
// energy cost.
type Dispatch struct {
	in   *model.Inputs
	opts DispatchOptions
	b    *builder
}

// NewDispatch builds the dispatch model. The inputs are validated first.
func NewDispatch(in *model.Inputs, opts DispatchOptions) (*Dispatch, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	b := newBuilder("FlexibleDemand", in)
	b.flexibleLoad()
	if st := in.System.Storage; st != nil && !opts.IgnoreStorage {
		b.storage(storageLimits{
			capacity:            lp.Expr{Constant: st.CapacityKWh},
			maxCharge:           lp.Expr{Constant: st.MaxChargeKW},
			maxDischarge:        lp.Expr{Constant: st.MaxDischargeKW},
			chargeEfficiency:    st.ChargeEfficiency,
			dischargeEfficiency: st.DischargeEfficiency,
			initialSOC:          st.InitialSOC,
			finalSOC:            st.FinalSOC,
		})
	}
	b.balance()
	b.m.SetObjective(b.operatingCost(), lp.Minimize)
	return &Dispatch{in: in, opts: opts, b: b}, nil
}

// Model exposes the underlying LP, mostly for inspection.
func (d *Dispatch) Model() *lp.Model { return d.b.m }

// Solve runs the solver and extracts the schedule.
func (d *Dispatch) Solve(ctx context.Context) (*Result, error) {
	sol, err := d.b.m.Solve(ctx, d.opts.LP)
	if err != nil {
		return nil, fmt.Errorf("dispatch %q: %w", d.in.Scenario, err)
	}
	rows, opex := d.b.schedule(sol)
	return &Result{
		Scenario:         d.in.Scenario,
		Variant:          VariantDispatch,
		Status:           sol.Status,
		Nodes:            sol.Nodes,
		Hourly:           rows,
		ObjectiveDKK:     sol.Objective,
		OperatingCostDKK: opex,
	}, nil
}

// SolveDispatch builds and solves the dispatch model in one call.
func SolveDispatch(ctx context.Context, in *model.Inputs, opts DispatchOptions) (*Result, error) {
	d, err := NewDispatch(in, opts)
	if err != nil {
		return nil, err
	}
	return d.Solve(ctx)
}
