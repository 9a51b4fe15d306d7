package lp

import (
	"context"
	"errors"
	"math"
	"time"
)

// Status of a finished solve.
type Status string

const (
	StatusOptimal   Status = "OPTIMAL"
	StatusNodeLimit Status = "NODE_LIMIT"
)

// Options tune the solve. Zero values select the defaults.
type Options struct {
	// Tolerance is passed to the simplex as the reduced-cost threshold.
	Tolerance float64
	// IntegralityTolerance decides when a value counts as integral.
	IntegralityTolerance float64
	// MaxNodes bounds the number of branch-and-bound nodes.
	MaxNodes int
	// Simplex overrides the LP engine (used by tests).
	Simplex SimplexFunc
}

const (
	DefaultTolerance            = 1e-9
	DefaultIntegralityTolerance = 1e-6
	DefaultMaxNodes             = 10000
)

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.IntegralityTolerance <= 0 {
		o.IntegralityTolerance = DefaultIntegralityTolerance
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Simplex == nil {
		o.Simplex = gonumSimplex
	}
	return o
}

// Solution is the result of Model.Solve.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	// Nodes is the number of LP relaxations solved.
	Nodes int
}

// Value returns the optimal value of v.
func (s *Solution) Value(v Var) float64 {
	if s == nil || v.idx < 0 || v.idx >= len(s.Values) {
		return 0
	}
	return s.Values[v.idx]
}

// ValuesOf returns the optimal values of vs in order.
func (s *Solution) ValuesOf(vs []Var) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = s.Value(v)
	}
	return out
}

type node struct {
	lb, ub []float64
}

// Solve optimises the model. Pure LPs take a single simplex call; models with
// integer variables are solved by depth-first branch and bound on the most
// fractional variable.
func (m *Model) Solve(ctx context.Context, opts Options) (*Solution, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	lb := make([]float64, len(m.vars))
	ub := make([]float64, len(m.vars))
	for j, v := range m.vars {
		lb[j], ub[j] = v.lb, v.ub
		if v.kind != Continuous {
			lb[j] = math.Ceil(lb[j] - opts.IntegralityTolerance)
			ub[j] = math.Floor(ub[j] + opts.IntegralityTolerance)
		}
	}

	if !m.IsMIP() {
		obj, x, err := m.relax(lb, ub, opts.Tolerance, opts.Simplex)
		if err != nil {
			return nil, err
		}
		return &Solution{Status: StatusOptimal, Objective: m.userObjective(obj), Values: x, Nodes: 1}, nil
	}

	var (
		best      []float64
		bestObj   = math.Inf(1)
		nodes     int
		stack     = []node{{lb: lb, ub: ub}}
		hitLimit  bool
		rootError error
	)

	for len(stack) > 0 {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		if nodes >= opts.MaxNodes {
			hitLimit = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, x, err := m.relax(nd.lb, nd.ub, opts.Tolerance, opts.Simplex)
		if err != nil {
			if nodes == 1 {
				rootError = err
			}
			if errors.Is(err, ErrInfeasible) || errors.Is(err, ErrUnbounded) {
				continue
			}
			return nil, err
		}
		if obj >= bestObj-1e-9*math.Max(1, math.Abs(bestObj)) {
			continue
		}

		branch, frac := -1, 0.0
		for j, v := range m.vars {
			if v.kind == Continuous {
				continue
			}
			f := math.Abs(x[j] - math.Round(x[j]))
			if f > opts.IntegralityTolerance && f > frac {
				branch, frac = j, f
			}
		}
		if branch < 0 {
			for j, v := range m.vars {
				if v.kind != Continuous {
					x[j] = math.Round(x[j])
				}
			}
			best, bestObj = x, obj
			continue
		}

		down := node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...)}
		down.ub[branch] = math.Floor(x[branch])
		up := node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...)}
		up.lb[branch] = math.Ceil(x[branch])
		// The side nearer to the relaxed value is explored first.
		if x[branch]-math.Floor(x[branch]) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if best == nil {
		if hitLimit {
			return nil, ErrNodeLimit
		}
		if rootError != nil {
			return nil, rootError
		}
		return nil, ErrInfeasible
	}
	status := StatusOptimal
	if hitLimit {
		status = StatusNodeLimit
	}
	return &Solution{Status: status, Objective: m.userObjective(bestObj), Values: best, Nodes: nodes}, nil
}

func (m *Model) userObjective(minObj float64) float64 {
	if m.dir == Maximize {
		return -minObj
	}
	return minObj
}

// ctxErr is ctx.Err that also reports a deadline which has passed before
// its timer fired.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	return nil
}
