// Package solver is a small MILP solver abstraction: an objective vector,
// a row-wise constraint matrix with per-row bounds, per-column bounds, and
// a set of integer columns, solved for a minimum. The one implementation
// here is a best-first branch-and-bound over the binary columns, using a
// priority queue as the search frontier.
package solver

import (
	"errors"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// Status mirrors the solver's proof strength: did it prove optimality, did
// it only find a feasible assignment before its time budget ran out, or
// did it prove no assignment satisfies every row.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
)

// Problem is the generic 0/1 integer program: minimize Objective·x subject
// to RowLB[i] <= (A[i]·x) <= RowUB[i] for every row, with every variable
// bounded [ColLB[j], ColUB[j]] and, where Integer[j] is true, constrained
// to an integer value within that bound. Every variable used by this
// solver's only implementation is binary (ColLB=0, ColUB=1, Integer=true).
type Problem struct {
	NumVars    int
	Objective  []float64
	A          [][]float64
	RowLB      []float64
	RowUB      []float64
	ColLB      []float64
	ColUB      []float64
	Integer    []bool
	TimeBudget time.Duration
}

// Solution is what a Solver returns: the proof strength, the achieved
// objective, and the variable assignment.
type Solution struct {
	Status    Status
	Objective float64
	X         []float64
}

// Solver is the contract any mature MILP library could satisfy, so one
// could be substituted for BranchAndBound without changing a caller.
type Solver interface {
	Solve(p Problem) (Solution, error)
}

// ErrNoFeasibleSolution is returned when a time budget expires before the
// branch-and-bound found even one feasible assignment.
var ErrNoFeasibleSolution = errors.New("solver: time budget expired with no feasible solution found")

// BranchAndBound explores every binary assignment of Problem.NumVars
// variables, using, as the admissible lower bound for an unfinished
// assignment, the best each undecided variable could contribute on its
// own (ignoring constraints: constraints can only raise the true
// optimum, never lower it, so this bound is always valid for pruning).
type BranchAndBound struct{}

type node struct {
	depth     int
	assigned  []float64 // length == depth
	bound     float64
}

// Solve runs the search to exhaustion (or until TimeBudget elapses) and
// returns the best complete, row-feasible assignment found.
func (BranchAndBound) Solve(p Problem) (Solution, error) {
	deadline := time.Time{}
	if p.TimeBudget > 0 {
		deadline = time.Now().Add(p.TimeBudget)
	}

	frontier := binaryheap.NewWith(func(a, b interface{}) int {
		na, nb := a.(node), b.(node)
		switch {
		case na.bound < nb.bound:
			return -1
		case na.bound > nb.bound:
			return 1
		default:
			return 0
		}
	})
	frontier.Push(node{depth: 0, assigned: nil, bound: futureBestCase(p, 0)})

	haveIncumbent := false
	var incumbent Solution
	exhausted := false

	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		raw, ok := frontier.Pop()
		if !ok {
			exhausted = true
			break
		}
		n := raw.(node)

		if haveIncumbent && n.bound >= incumbent.Objective {
			continue // everything else in the frontier is at least this bad
		}

		if n.depth == p.NumVars {
			if !rowsFeasible(p, n.assigned) {
				continue
			}
			if !haveIncumbent || n.bound < incumbent.Objective {
				haveIncumbent = true
				incumbent = Solution{Status: StatusFeasible, Objective: n.bound, X: append([]float64{}, n.assigned...)}
			}
			continue
		}

		for _, v := range []float64{0, 1} {
			child := append(append([]float64{}, n.assigned...), v)
			frontier.Push(node{
				depth:    n.depth + 1,
				assigned: child,
				bound:    partialCost(p, child) + futureBestCase(p, n.depth+1),
			})
		}
	}

	if !haveIncumbent {
		if exhausted {
			return Solution{Status: StatusInfeasible}, nil
		}
		return Solution{}, ErrNoFeasibleSolution
	}
	if exhausted {
		incumbent.Status = StatusOptimal
	}
	return incumbent, nil
}

func partialCost(p Problem, assigned []float64) float64 {
	var sum float64
	for i, v := range assigned {
		sum += p.Objective[i] * v
	}
	return sum
}

// futureBestCase is the admissible lower bound for every variable at
// index >= depth: its contribution if unconstrained, picking whichever of
// 0 or 1 is cheapest for its objective coefficient. Since constraints can
// only raise the true optimum, never lower it, this is always a valid
// bound for pruning.
func futureBestCase(p Problem, depth int) float64 {
	var sum float64
	for i := depth; i < p.NumVars; i++ {
		if p.Objective[i] < 0 {
			sum += p.Objective[i]
		}
	}
	return sum
}

func rowsFeasible(p Problem, x []float64) bool {
	const eps = 1e-6
	for r := range p.A {
		var v float64
		for j, coef := range p.A[r] {
			v += coef * x[j]
		}
		if v < p.RowLB[r]-eps || v > p.RowUB[r]+eps {
			return false
		}
	}
	return true
}
