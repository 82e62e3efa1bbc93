// Package report is the aggregate run-summary writer: a CSV with header
// topo,sdn_pct,flows,duration,avg_max_link_util, one row per run. It is
// offline tooling for comparing runs, not part of the live control loop.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// RunSummary is one aggregate-CSV row.
type RunSummary struct {
	Topology       string
	SDNPercent     float64
	Flows          int
	DurationSec    float64
	AvgMaxLinkUtil float64
}

// Aggregator collects RunSummary rows under a mutex and flushes them to
// CSV.
type Aggregator struct {
	mu   sync.Mutex
	rows []RunSummary
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends one run's summary row.
func (a *Aggregator) Add(row RunSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, row)
}

// WriteCSV writes every collected row, header first.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"topo", "sdn_pct", "flows", "duration", "avg_max_link_util"}); err != nil {
		return err
	}
	for _, r := range a.rows {
		row := []string{
			r.Topology,
			strconv.FormatFloat(r.SDNPercent, 'f', 2, 64),
			strconv.Itoa(r.Flows),
			strconv.FormatFloat(r.DurationSec, 'f', 2, 64),
			strconv.FormatFloat(r.AvgMaxLinkUtil, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// AvgMaxLinkUtil reads a monitor CSV export (time_iso,u,v,rx_mbps,
// tx_mbps,util) and returns the average, across distinct timestamps, of
// the maximum per-edge utilization observed at that timestamp. It reads
// columns positionally, so it does not care what the header names them.
func AvgMaxLinkUtil(r io.Reader) (float64, error) {
	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil { // header
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("report: read monitor csv header: %w", err)
	}

	maxByTimestamp := make(map[string]float64)
	var order []string

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("report: read monitor csv row: %w", err)
		}
		if len(rec) < 6 {
			continue
		}
		util, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			continue
		}

		ts := rec[0]
		cur, seen := maxByTimestamp[ts]
		if !seen {
			order = append(order, ts)
			maxByTimestamp[ts] = util
		} else if util > cur {
			maxByTimestamp[ts] = util
		}
	}

	if len(order) == 0 {
		return 0, nil
	}
	var sum float64
	for _, ts := range order {
		sum += maxByTimestamp[ts]
	}
	return sum / float64(len(order)), nil
}
