package solver

import "testing"

func TestBranchAndBoundTrivialMinimization(t *testing.T) {
	// minimize x0 + x1 subject to x0 + x1 = 1, x0,x1 in {0,1}.
	p := Problem{
		NumVars:   2,
		Objective: []float64{1, 1},
		A:         [][]float64{{1, 1}},
		RowLB:     []float64{1},
		RowUB:     []float64{1},
	}
	sol, err := BranchAndBound{}.Solve(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %v", sol.Status)
	}
	if sol.Objective != 1 {
		t.Fatalf("expected objective 1, got %v", sol.Objective)
	}
	if sol.X[0]+sol.X[1] != 1 {
		t.Fatalf("expected exactly one variable set, got %v", sol.X)
	}
}

func TestBranchAndBoundInfeasible(t *testing.T) {
	// x0 + x1 = 1 and x0 + x1 = 0 can never both hold.
	p := Problem{
		NumVars:   2,
		Objective: []float64{1, 1},
		A:         [][]float64{{1, 1}, {1, 1}},
		RowLB:     []float64{1, 0},
		RowUB:     []float64{1, 0},
	}
	sol, err := BranchAndBound{}.Solve(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Fatalf("expected infeasible, got %v", sol.Status)
	}
}
