// Package loader reads the static graph and flow demand files an operator
// hands the controller at startup. GraphSource/FlowSource are the
// interfaces a real deployment would satisfy with a Kubernetes- or
// database-backed source; JSONGraphSource/CSVFlowSource are the default,
// file-based implementations that make a bare checkout runnable end to
// end.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hybridsdn/controller/internal/model"
)

// GraphSource delivers the static topology: nodes, links, capacities, and
// SDN membership.
type GraphSource interface {
	LoadGraph() (model.GraphCaps, error)
}

// FlowSource delivers the flow demand set.
type FlowSource interface {
	LoadFlows() ([]model.FlowDemand, error)
}

// graphFile is the on-disk JSON shape: nodes carry an informational SDN
// flag (which switches are OpenFlow-capable at all); links carry the
// authoritative per-edge SDN-membership flag the planner actually reads.
type graphFile struct {
	Nodes []struct {
		ID  int  `json:"id"`
		SDN bool `json:"sdn"`
	} `json:"nodes"`
	Links []struct {
		U          int     `json:"u"`
		V          int     `json:"v"`
		UPort      uint16  `json:"u_port"`
		VPort      uint16  `json:"v_port"`
		CapacityGb float64 `json:"capacity_gbps"`
		SDN        bool    `json:"sdn"`
		PowerCost  *float64 `json:"power_cost,omitempty"`
	} `json:"links"`
}

// JSONGraphSource reads a graphFile from Path.
type JSONGraphSource struct {
	Path string
}

func (s JSONGraphSource) LoadGraph() (model.GraphCaps, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return model.GraphCaps{}, fmt.Errorf("loader: open graph file: %w", err)
	}
	defer f.Close()

	return decodeGraph(f)
}

func decodeGraph(r io.Reader) (model.GraphCaps, error) {
	var gf graphFile
	if err := json.NewDecoder(r).Decode(&gf); err != nil {
		return model.GraphCaps{}, fmt.Errorf("loader: decode graph file: %w", err)
	}

	g := model.GraphCaps{
		Capacity: make(map[model.EdgeKey]float64, len(gf.Links)),
		SDN:      make(map[model.EdgeKey]bool, len(gf.Links)),
		Power:    make(map[model.EdgeKey]float64, len(gf.Links)),
	}

	for _, l := range gf.Links {
		key := model.NewEdgeKey(model.NodeID(l.U), model.NodeID(l.V))
		capMbps := l.CapacityGb * 1000

		power := 0.1 * capMbps
		if l.PowerCost != nil {
			power = *l.PowerCost
		}

		g.Capacity[key] = capMbps
		g.SDN[key] = l.SDN
		g.Power[key] = power
	}

	return g, nil
}

// CSVFlowSource reads the header+CSV flow file: `flow_id, s, d,
// demand_mbps`.
type CSVFlowSource struct {
	Path string
}

func (s CSVFlowSource) LoadFlows() ([]model.FlowDemand, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("loader: open flow file: %w", err)
	}
	defer f.Close()

	return decodeFlows(f)
}

func decodeFlows(r io.Reader) ([]model.FlowDemand, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil { // header
		return nil, fmt.Errorf("loader: read flow header: %w", err)
	}

	var flows []model.FlowDemand
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: read flow row: %w", err)
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("loader: flow row has %d fields, want 4", len(rec))
		}

		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("loader: parse flow_id %q: %w", rec[0], err)
		}
		s, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("loader: parse s %q: %w", rec[1], err)
		}
		d, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("loader: parse d %q: %w", rec[2], err)
		}
		demand, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("loader: parse demand_mbps %q: %w", rec[3], err)
		}

		flows = append(flows, model.FlowDemand{
			FlowID:     id,
			S:          model.NodeID(s),
			D:          model.NodeID(d),
			DemandMbps: demand,
		})
	}

	return flows, nil
}
