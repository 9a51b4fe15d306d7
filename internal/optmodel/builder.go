package optmodel

import (
	"fmt"
	"math"

	"demand-flex/internal/lp"
	"demand-flex/internal/model"
)

// builder assembles the per-hour energy flows shared by both models.
type builder struct {
	m  *lp.Model
	in *model.Inputs
	n  int

	pvUsed      []lp.Var
	pvCurtailed []lp.Var
	load        []lp.Var // nil when the load is fixed
	imp         []lp.Var
	exp         []lp.Var

	charge    []lp.Var // nil without storage
	discharge []lp.Var
	soc       []lp.Var

	fixedLoad []float64
}

func newBuilder(name string, in *model.Inputs) *builder {
	n := in.Hourly.Hours()
	m := lp.NewModel(name)
	sys := in.System
	b := &builder{
		m:           m,
		in:          in,
		n:           n,
		pvUsed:      m.AddVars("pv_used", n, 0, lp.Inf(), lp.Continuous),
		pvCurtailed: m.AddVars("pv_curtailed", n, 0, lp.Inf(), lp.Continuous),
		imp:         m.AddVars("import", n, 0, sys.MaxImportKW, lp.Continuous),
		exp:         m.AddVars("export", n, 0, sys.MaxExportKW, lp.Continuous),
	}
	for h := 0; h < n; h++ {
		b.m.AddConstr(fmt.Sprintf("pv_production_limit[%d]", h),
			lp.NewExpr(lp.Term{Var: b.pvUsed[h], Coef: 1}, lp.Term{Var: b.pvCurtailed[h], Coef: 1}),
			lp.Equal, in.Hourly.AvailablePVKW[h])
	}
	return b
}

// flexibleLoad adds the schedulable load with its daily energy and ramp limits.
func (b *builder) flexibleLoad() {
	sys := b.in.System
	b.load = b.m.AddVars("load", b.n, 0, sys.MaxLoadKW, lp.Continuous)

	total := lp.Sum(b.load...)
	b.m.AddConstr("min_daily_energy", total, lp.GreaterEqual, sys.MinDailyEnergyKWh)
	if sys.MaxDailyEnergyKWh > 0 {
		b.m.AddConstr("max_daily_energy", total, lp.LessEqual, sys.MaxDailyEnergyKWh)
	}

	for h := 1; h < b.n; h++ {
		step := lp.NewExpr(lp.Term{Var: b.load[h], Coef: 1}, lp.Term{Var: b.load[h-1], Coef: -1})
		if sys.LoadRampUpKW > 0 {
			b.m.AddConstr(fmt.Sprintf("ramp_up[%d]", h), step, lp.LessEqual, sys.LoadRampUpKW)
		}
		if sys.LoadRampDownKW > 0 {
			b.m.AddConstr(fmt.Sprintf("ramp_down[%d]", h), step, lp.GreaterEqual, -sys.LoadRampDownKW)
		}
	}
}

// fixLoad pins the load to a reference profile.
func (b *builder) fixLoad(profile []float64) {
	b.fixedLoad = profile
}

// storageLimits describes the battery in terms of linear expressions so the
// same constraints serve an installed battery (constants) and a battery
// being sized (linear in the capacity variable).
type storageLimits struct {
	capacity     lp.Expr
	maxCharge    lp.Expr
	maxDischarge lp.Expr

	chargeEfficiency    float64
	dischargeEfficiency float64
	initialSOC          float64
	finalSOC            float64
}

func (b *builder) storage(s storageLimits) {
	b.charge = b.m.AddVars("charge", b.n, 0, lp.Inf(), lp.Continuous)
	b.discharge = b.m.AddVars("discharge", b.n, 0, lp.Inf(), lp.Continuous)
	b.soc = b.m.AddVars("soc", b.n, 0, lp.Inf(), lp.Continuous)

	for h := 0; h < b.n; h++ {
		b.m.AddConstr(fmt.Sprintf("max_soc[%d]", h), withVar(scaled(s.capacity, -1), b.soc[h], 1), lp.LessEqual, 0)
		b.m.AddConstr(fmt.Sprintf("max_charge[%d]", h), withVar(scaled(s.maxCharge, -1), b.charge[h], 1), lp.LessEqual, 0)
		b.m.AddConstr(fmt.Sprintf("max_discharge[%d]", h), withVar(scaled(s.maxDischarge, -1), b.discharge[h], 1), lp.LessEqual, 0)

		// soc_h = soc_{h-1} + ηc·charge_h − discharge_h/ηd
		var e lp.Expr
		if h == 0 {
			e = scaled(s.capacity, -s.initialSOC)
		} else {
			e = lp.NewExpr(lp.Term{Var: b.soc[h-1], Coef: -1})
		}
		e.Add(b.soc[h], 1).
			Add(b.charge[h], -s.chargeEfficiency).
			Add(b.discharge[h], 1/s.dischargeEfficiency)
		b.m.AddConstr(fmt.Sprintf("soc_update[%d]", h), e, lp.Equal, 0)
	}
	b.m.AddConstr("final_soc", withVar(scaled(s.capacity, -s.finalSOC), b.soc[b.n-1], 1), lp.Equal, 0)
}

// balance adds pv + import + discharge = load + export + charge for every hour.
func (b *builder) balance() {
	for h := 0; h < b.n; h++ {
		e := lp.NewExpr(
			lp.Term{Var: b.pvUsed[h], Coef: 1},
			lp.Term{Var: b.imp[h], Coef: 1},
			lp.Term{Var: b.exp[h], Coef: -1},
		)
		rhs := 0.0
		if b.load != nil {
			e.Add(b.load[h], -1)
		} else if b.fixedLoad != nil {
			rhs = b.fixedLoad[h]
		}
		if b.charge != nil {
			e.Add(b.discharge[h], 1).Add(b.charge[h], -1)
		}
		b.m.AddConstr(fmt.Sprintf("energy_balance[%d]", h), e, lp.Equal, rhs)
	}
}

// operatingCost is Σ import·(price + import tariff) − export·(price − export tariff).
func (b *builder) operatingCost() lp.Expr {
	sys := b.in.System
	var e lp.Expr
	for h, p := range b.in.Hourly.PriceDKKPerKWh {
		e.Add(b.imp[h], p+sys.ImportTariffDKKPerKWh)
		e.Add(b.exp[h], -(p - sys.ExportTariffDKKPerKWh))
	}
	return e
}

// schedule reads the hourly rows out of a solution.
func (b *builder) schedule(sol *lp.Solution) ([]HourlyResult, float64) {
	sys := b.in.System
	rows := make([]HourlyResult, b.n)
	total := 0.0
	for h := 0; h < b.n; h++ {
		price := b.in.Hourly.PriceDKKPerKWh[h]
		r := HourlyResult{
			Hour:            h,
			PVGenerationKW:  clean(sol.Value(b.pvUsed[h])),
			PVCurtailmentKW: clean(sol.Value(b.pvCurtailed[h])),
			GridImportKW:    clean(sol.Value(b.imp[h])),
			GridExportKW:    clean(sol.Value(b.exp[h])),
			PriceDKKPerKWh:  price,
		}
		switch {
		case b.load != nil:
			r.LoadKW = clean(sol.Value(b.load[h]))
		case b.fixedLoad != nil:
			r.LoadKW = b.fixedLoad[h]
		}
		if b.charge != nil {
			r.BatteryChargeKW = clean(sol.Value(b.charge[h]))
			r.BatteryDischargeKW = clean(sol.Value(b.discharge[h]))
			r.BatterySOCKWh = clean(sol.Value(b.soc[h]))
		}
		r.Action = model.ActionFromFlowsKW(r.BatteryChargeKW, r.BatteryDischargeKW)
		r.HourlyCostDKK = HourlyCost(r.GridImportKW, r.GridExportKW, price, sys)
		total += r.HourlyCostDKK
		rows[h] = r
	}
	return rows, total
}

func scaled(e lp.Expr, k float64) lp.Expr {
	out := lp.Expr{Constant: e.Constant * k}
	for _, t := range e.Terms {
		out.Terms = append(out.Terms, lp.Term{Var: t.Var, Coef: t.Coef * k})
	}
	return out
}

func withVar(e lp.Expr, v lp.Var, coef float64) lp.Expr {
	e.Add(v, coef)
	return e
}

// clean snaps solver noise around zero.
func clean(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}
