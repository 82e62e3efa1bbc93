// Package planner turns a live graph, a candidate-path set, a flow
// demand set, and a load/energy weight pair into a solver.Problem, then
// decodes the returned vector back into a model.PlanResult.
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/internal/solver"
)

// capacityFloor keeps a zero-capacity edge's reciprocal-capacity term from
// dividing by zero.
const capacityFloor = 1e-9

// bigBound stands in for -infinity on a row's lower bound; the solver only
// ever compares against it, never treats it as a true float boundary.
const bigBound = -1e18

// Input is everything one planning cycle hands the planner: the live
// graph restricted to capacities/SDN/power, the candidate paths indexed
// by id, the flows (each already populated with its candidate path ids),
// and the load/energy weight pair the forecaster derived.
type Input struct {
	Graph        model.GraphCaps
	Paths        map[int]model.Path
	Flows        []model.FlowDemand
	EWr, LWr     float64
	SolverBudget time.Duration
}

type fpVar struct {
	flowIdx int
	pathID  int
}

// Plan builds the path-selection and beta-assignment 0/1 program and
// solves it with sv. A flow with no candidate paths, or a solver error,
// is the caller's cue to abandon the cycle and preserve the previous
// state, Plan itself just reports it.
func Plan(in Input, sv solver.Solver) (model.PlanResult, error) {
	for _, f := range in.Flows {
		if len(f.CandPathIDs) == 0 {
			return model.PlanResult{Status: model.StatusInfeasible}, errNoCandidatePaths(f.FlowID)
		}
	}

	fpVars, fpIndex := indexFlowPathVars(in.Flows)
	sdnEdges := sortedSDNEdges(in.Graph)
	betaIndex := make(map[model.EdgeKey]int, len(sdnEdges))
	for i, e := range sdnEdges {
		betaIndex[e] = len(fpVars) + i
	}
	numVars := len(fpVars) + len(sdnEdges)

	objective := make([]float64, numVars)
	for i, v := range fpVars {
		f := in.Flows[v.flowIdx]
		path := in.Paths[v.pathID]
		var perMbpsCost float64
		for _, e := range path.Edges {
			cap := in.Graph.Capacity[e]
			if cap < capacityFloor {
				cap = capacityFloor
			}
			perMbpsCost += 1 / cap
		}
		objective[i] = in.LWr * f.DemandMbps * perMbpsCost
	}
	for e, idx := range betaIndex {
		objective[idx] = in.EWr * in.Graph.Power[e]
	}

	var a [][]float64
	var rowLB, rowUB []float64

	// Path exclusivity, per flow.
	for fi, f := range in.Flows {
		row := make([]float64, numVars)
		for _, pid := range f.CandPathIDs {
			row[fpIndex[fpVar{flowIdx: fi, pathID: pid}]] = 1
		}
		a = append(a, row)
		rowLB = append(rowLB, 1)
		rowUB = append(rowUB, 1)
	}

	// Capacity, per known edge: SDN edges gain a -C_e*beta term and an
	// upper bound of 0; legacy edges bound the raw load at C_e.
	for e, cap := range in.Graph.Capacity {
		row := make([]float64, numVars)
		for i, v := range fpVars {
			path := in.Paths[v.pathID]
			if containsEdge(path.Edges, e) {
				row[i] += in.Flows[v.flowIdx].DemandMbps
			}
		}
		if in.Graph.SDN[e] {
			row[betaIndex[e]] = -cap
			a = append(a, row)
			rowLB = append(rowLB, bigBound)
			rowUB = append(rowUB, 0)
		} else {
			a = append(a, row)
			rowLB = append(rowLB, bigBound)
			rowUB = append(rowUB, cap)
		}
	}

	colLB := make([]float64, numVars)
	colUB := make([]float64, numVars)
	integer := make([]bool, numVars)
	for i := range colUB {
		colUB[i] = 1
		integer[i] = true
	}

	prob := solver.Problem{
		NumVars:    numVars,
		Objective:  objective,
		A:          a,
		RowLB:      rowLB,
		RowUB:      rowUB,
		ColLB:      colLB,
		ColUB:      colUB,
		Integer:    integer,
		TimeBudget: in.SolverBudget,
	}

	sol, err := sv.Solve(prob)
	if err != nil {
		return model.PlanResult{Status: model.StatusInfeasible}, err
	}
	if sol.Status == solver.StatusInfeasible {
		return model.PlanResult{Status: model.StatusInfeasible}, nil
	}

	return decode(in, fpVars, betaIndex, sol), nil
}

func decode(in Input, fpVars []fpVar, betaIndex map[model.EdgeKey]int, sol solver.Solution) model.PlanResult {
	chosen := make(map[int]int, len(in.Flows))
	bestX := make(map[int]float64, len(in.Flows))
	decided := make(map[int]bool, len(in.Flows))

	loads := make(map[model.EdgeKey]float64)

	for i, v := range fpVars {
		x := sol.X[i]
		flowID := in.Flows[v.flowIdx].FlowID
		if !decided[flowID] || x > bestX[flowID] {
			bestX[flowID] = x
			chosen[flowID] = v.pathID
			decided[flowID] = true
		}
		if x >= 0.5 {
			demand := in.Flows[v.flowIdx].DemandMbps
			for _, e := range in.Paths[v.pathID].Edges {
				loads[e] += demand
			}
		}
	}

	beta := make(map[model.EdgeKey]bool, len(betaIndex))
	for e, idx := range betaIndex {
		beta[e] = sol.X[idx] >= 0.5
	}

	status := model.StatusFeasible
	if sol.Status == solver.StatusOptimal {
		status = model.StatusOptimal
	}

	return model.PlanResult{
		Status:    status,
		Objective: sol.Objective,
		ChosenPath: chosen,
		Beta:      beta,
		LoadMbps:  loads,
	}
}

func indexFlowPathVars(flows []model.FlowDemand) ([]fpVar, map[fpVar]int) {
	var vars []fpVar
	index := make(map[fpVar]int)
	for fi, f := range flows {
		for _, pid := range f.CandPathIDs {
			v := fpVar{flowIdx: fi, pathID: pid}
			index[v] = len(vars)
			vars = append(vars, v)
		}
	}
	return vars, index
}

func sortedSDNEdges(g model.GraphCaps) []model.EdgeKey {
	var edges []model.EdgeKey
	for e, sdn := range g.SDN {
		if sdn {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.U != b.U {
			return a.U < b.U
		}
		return a.V < b.V
	})
	return edges
}

func containsEdge(edges []model.EdgeKey, e model.EdgeKey) bool {
	for _, x := range edges {
		if x == e {
			return true
		}
	}
	return false
}

type noCandidatePathsError struct{ flowID int }

func (e noCandidatePathsError) Error() string {
	return fmt.Sprintf("planner: flow %d has no candidate paths", e.flowID)
}

func errNoCandidatePaths(flowID int) error {
	return noCandidatePathsError{flowID: flowID}
}
