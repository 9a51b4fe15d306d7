package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SimplexFunc solves min cᵀx s.t. Ax = b, x >= 0.
type SimplexFunc func(c []float64, A mat.Matrix, b []float64, tol float64) (float64, []float64, error)

func gonumSimplex(c []float64, A mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	return lp.Simplex(c, A, b, tol, nil)
}

// column describes how an original variable maps onto standard-form columns:
// x = offset + Σ sign_k · y_{col_k}.
type column struct {
	offset float64
	cols   []int
	signs  []float64
}

type stdRow struct {
	coef  map[int]float64
	sense Sense
	rhs   float64
}

// relax solves the continuous relaxation of m under the bounds lb/ub.
// The returned objective is always in minimisation form (negated for Maximize).
func (m *Model) relax(lb, ub []float64, tol float64, simplex SimplexFunc) (float64, []float64, error) {
	const eps = 1e-9
	n := len(m.vars)
	maps := make([]column, n)
	nCols := 0
	var boundRows []stdRow

	for j := 0; j < n; j++ {
		l, u := lb[j], ub[j]
		if l > u+eps {
			return 0, nil, ErrInfeasible
		}
		switch {
		case !math.IsInf(l, -1):
			maps[j] = column{offset: l, cols: []int{nCols}, signs: []float64{1}}
			if !math.IsInf(u, 1) {
				boundRows = append(boundRows, stdRow{coef: map[int]float64{nCols: 1}, sense: LessEqual, rhs: math.Max(u-l, 0)})
			}
			nCols++
		case !math.IsInf(u, 1):
			maps[j] = column{offset: u, cols: []int{nCols}, signs: []float64{-1}}
			nCols++
		default:
			maps[j] = column{cols: []int{nCols, nCols + 1}, signs: []float64{1, -1}}
			nCols += 2
		}
	}

	rows := make([]stdRow, 0, len(m.cons)+len(boundRows))
	for _, c := range m.cons {
		r := stdRow{coef: map[int]float64{}, sense: c.sense, rhs: c.rhs - c.expr.Constant}
		for _, t := range c.expr.Terms {
			cm := maps[t.Var.idx]
			r.rhs -= t.Coef * cm.offset
			for k, col := range cm.cols {
				r.coef[col] += t.Coef * cm.signs[k]
			}
		}
		for col, v := range r.coef {
			if v == 0 {
				delete(r.coef, col)
			}
		}
		if len(r.coef) == 0 {
			if !trivialRowHolds(r, eps) {
				return 0, nil, fmt.Errorf("constraint %q: %w", c.name, ErrInfeasible)
			}
			continue
		}
		rows = append(rows, r)
	}
	rows = append(rows, boundRows...)

	sign := 1.0
	if m.dir == Maximize {
		sign = -1
	}
	cost := make([]float64, nCols)
	objOffset := sign * m.obj.Constant
	for _, t := range m.obj.Terms {
		cm := maps[t.Var.idx]
		objOffset += sign * t.Coef * cm.offset
		for k, col := range cm.cols {
			cost[col] += sign * t.Coef * cm.signs[k]
		}
	}

	// Columns that appear in no row sit at zero unless their cost pulls them
	// towards +∞.
	used := make([]bool, nCols)
	for _, r := range rows {
		for col := range r.coef {
			used[col] = true
		}
	}
	active := make([]int, nCols)
	nActive := 0
	for col := 0; col < nCols; col++ {
		if !used[col] {
			if cost[col] < -eps {
				return 0, nil, ErrUnbounded
			}
			active[col] = -1
			continue
		}
		active[col] = nActive
		nActive++
	}

	y := make([]float64, nCols)
	if len(rows) > 0 {
		nSlack := 0
		for _, r := range rows {
			if r.sense != Equal {
				nSlack++
			}
		}
		width := nActive + nSlack
		if len(rows) > width {
			return 0, nil, fmt.Errorf("lp: %d rows exceed %d columns in standard form", len(rows), width)
		}
		A := mat.NewDense(len(rows), width, nil)
		b := make([]float64, len(rows))
		c := make([]float64, width)
		for col := 0; col < nCols; col++ {
			if active[col] >= 0 {
				c[active[col]] = cost[col]
			}
		}
		slack := nActive
		for i, r := range rows {
			for col, v := range r.coef {
				A.Set(i, active[col], v)
			}
			switch r.sense {
			case LessEqual:
				A.Set(i, slack, 1)
				slack++
			case GreaterEqual:
				A.Set(i, slack, -1)
				slack++
			}
			b[i] = r.rhs
			if b[i] < 0 {
				b[i] = -b[i]
				for k := 0; k < width; k++ {
					if v := A.At(i, k); v != 0 {
						A.Set(i, k, -v)
					}
				}
			}
		}

		_, sol, err := simplex(c, A, b, tol)
		if err != nil {
			switch {
			case errors.Is(err, lp.ErrInfeasible):
				return 0, nil, ErrInfeasible
			case errors.Is(err, lp.ErrUnbounded):
				return 0, nil, ErrUnbounded
			}
			return 0, nil, fmt.Errorf("simplex: %w", err)
		}
		for col := 0; col < nCols; col++ {
			if active[col] >= 0 {
				y[col] = sol[active[col]]
			}
		}
	}

	x := make([]float64, n)
	obj := objOffset
	for j, cm := range maps {
		v := cm.offset
		for k, col := range cm.cols {
			v += cm.signs[k] * y[col]
		}
		x[j] = v
	}
	for col, v := range y {
		obj += cost[col] * v
	}
	return obj, x, nil
}

func trivialRowHolds(r stdRow, eps float64) bool {
	switch r.sense {
	case LessEqual:
		return 0 <= r.rhs+eps
	case GreaterEqual:
		return 0 >= r.rhs-eps
	default:
		return math.Abs(r.rhs) <= eps
	}
}
