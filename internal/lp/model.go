package lp

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInfeasible = errors.New("lp: problem is infeasible")
	ErrUnbounded  = errors.New("lp: problem is unbounded")
	ErrNodeLimit  = errors.New("lp: branch-and-bound node limit reached without an integer solution")
)

// VarKind is the integrality class of a variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

func (k VarKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "continuous"
	}
}

// Sense is the relation of a constraint row to its right-hand side.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "<="
	}
}

// Direction of the objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Inf is +∞, usable as an upper bound.
func Inf() float64 { return math.Inf(1) }

// Var is a handle to a decision variable of a Model.
type Var struct {
	idx int
}

// Index returns the column position of v in its model.
func (v Var) Index() int { return v.idx }

type variable struct {
	name string
	lb   float64
	ub   float64
	kind VarKind
}

type constraint struct {
	name  string
	expr  Expr
	sense Sense
	rhs   float64
}

// Model is a linear (or mixed-integer linear) program:
//
//	min/max  objective
//	s.t.     expr_i (<=|>=|=) rhs_i
//	         lb_j <= x_j <= ub_j,  x_j integer for Integer/Binary kinds
type Model struct {
	Name string

	vars []variable
	cons []constraint
	obj  Expr
	dir  Direction
}

func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddVar adds a single variable. Binary variables always get bounds [0,1].
func (m *Model) AddVar(name string, lb, ub float64, kind VarKind) Var {
	if kind == Binary {
		lb, ub = 0, 1
	}
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, kind: kind})
	return Var{idx: len(m.vars) - 1}
}

// AddVars adds n variables named prefix[0..n-1] sharing the same bounds.
func (m *Model) AddVars(prefix string, n int, lb, ub float64, kind VarKind) []Var {
	out := make([]Var, n)
	for i := range out {
		out[i] = m.AddVar(fmt.Sprintf("%s[%d]", prefix, i), lb, ub, kind)
	}
	return out
}

// AddConstr adds the row expr (sense) rhs. The expression constant is moved
// to the right-hand side at solve time.
func (m *Model) AddConstr(name string, expr Expr, sense Sense, rhs float64) {
	m.cons = append(m.cons, constraint{name: name, expr: expr.clone(), sense: sense, rhs: rhs})
}

func (m *Model) SetObjective(expr Expr, dir Direction) {
	m.obj = expr.clone()
	m.dir = dir
}

func (m *Model) NumVars() int        { return len(m.vars) }
func (m *Model) NumConstraints() int { return len(m.cons) }

// VarName returns the name given to v.
func (m *Model) VarName(v Var) string {
	if v.idx < 0 || v.idx >= len(m.vars) {
		return ""
	}
	return m.vars[v.idx].name
}

// IsMIP reports whether any variable carries an integrality restriction.
func (m *Model) IsMIP() bool {
	for _, v := range m.vars {
		if v.kind != Continuous {
			return true
		}
	}
	return false
}

// Term is coef·var.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is an affine expression Σ coef·var + constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr builds an expression from terms.
func NewExpr(terms ...Term) Expr {
	return Expr{Terms: append([]Term(nil), terms...)}
}

// Sum builds Σ vars with unit coefficients.
func Sum(vars ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// Add appends coef·v and returns e for chaining.
func (e *Expr) Add(v Var, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddConstant adds c to the expression constant.
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// Eval evaluates the expression at x (indexed by variable).
func (e Expr) Eval(x []float64) float64 {
	s := e.Constant
	for _, t := range e.Terms {
		s += t.Coef * x[t.Var.idx]
	}
	return s
}

func (e Expr) clone() Expr {
	return Expr{Terms: append([]Term(nil), e.Terms...), Constant: e.Constant}
}
