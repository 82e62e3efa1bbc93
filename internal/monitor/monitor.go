// Package monitor samples switch port counters on a fixed period, turns
// counter deltas into per-edge Mbps and utilization, and keeps an
// append-only series per edge that the actuator's forecast history and the
// CSV export read.
package monitor

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/logging"
)

var log = logging.Component("monitor")

// Facade is the subset of internal/ctrl.Controller the monitor needs.
type Facade interface {
	PollPortStats(swid uint32) (map[uint16]model.PortCounters, error)
}

// EdgeSource is the subset of internal/topology.Viewer the monitor needs:
// which edges currently exist to sample.
type EdgeSource interface {
	SnapshotEdges() []model.LiveEdge
}

// Sample is one window's worth of a single edge's rate and utilization.
type Sample struct {
	At     time.Time
	RXMbps float64
	TXMbps float64
	Util   float64
}

type edgeState struct {
	lastRX, lastTX uint64
	lastSampleAt   time.Time
	series         []Sample
}

// Monitor owns per-edge counter-delta state and time series. Capacities is
// the static, load-time-fixed capacity map the utilization formula divides
// by; a missing or non-positive entry yields utilization 0.
type Monitor struct {
	facade     Facade
	edges      EdgeSource
	period     time.Duration
	capacities map[model.EdgeKey]float64

	mu    sync.Mutex
	state map[model.EdgeKey]*edgeState

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Monitor. capacities is read-only for the monitor's
// lifetime: the static capacity map never changes during a run.
func New(facade Facade, edges EdgeSource, period time.Duration, capacities map[model.EdgeKey]float64) *Monitor {
	return &Monitor{
		facade:     facade,
		edges:      edges,
		period:     period,
		capacities: capacities,
		state:      make(map[model.EdgeKey]*edgeState),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the background sampling loop.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop ends the background loop and waits for it to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) loop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample reads each live edge's U-side port counters, turns the delta since
// the previous sample into Mbps, and appends one Sample per edge.
func (m *Monitor) sample() {
	now := time.Now()

	for _, e := range m.edges.SnapshotEdges() {
		counters, err := m.facade.PollPortStats(uint32(e.Key.U))
		if err != nil {
			log.Warn().Err(err).Int("u", int(e.Key.U)).Msg("port stats poll failed")
			continue
		}
		pc, ok := counters[e.UPort]
		if !ok {
			continue
		}

		m.mu.Lock()
		st, ok := m.state[e.Key]
		if !ok {
			st = &edgeState{}
			m.state[e.Key] = st
		}

		var rxMbps, txMbps float64
		if !st.lastSampleAt.IsZero() {
			dt := now.Sub(st.lastSampleAt).Seconds()
			if dt > 0 {
				drx := deltaClamped(pc.RXBytes, st.lastRX)
				dtx := deltaClamped(pc.TXBytes, st.lastTX)
				rxMbps = 8 * float64(drx) / (1e6 * dt)
				txMbps = 8 * float64(dtx) / (1e6 * dt)
			}
		}
		st.lastRX, st.lastTX = pc.RXBytes, pc.TXBytes
		st.lastSampleAt = now

		util := m.utilizationLocked(e.Key, rxMbps, txMbps)
		st.series = append(st.series, Sample{At: now, RXMbps: rxMbps, TXMbps: txMbps, Util: util})
		m.mu.Unlock()
	}
}

// utilizationLocked looks up key's static capacity by (U,V) only, so a live
// edge's LLDP-discovered ports need not match the capacity map's ports for
// the lookup to hit.
func (m *Monitor) utilizationLocked(key model.EdgeKey, rxMbps, txMbps float64) float64 {
	cap, ok := m.capacities[key]
	if !ok || cap <= 0 {
		return 0
	}
	return clamp((rxMbps+txMbps)/cap, 0, 1)
}

func deltaClamped(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WindowAverage blocks until duration d has elapsed, then returns, per
// edge, the arithmetic mean of every sample the background loop collected
// during that window.
func (m *Monitor) WindowAverage(d time.Duration) map[model.EdgeKey]Sample {
	start := time.Now()
	time.Sleep(time.Until(start.Add(d)))

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[model.EdgeKey]Sample, len(m.state))
	for k, st := range m.state {
		var rx, tx []float64
		for _, s := range st.series {
			if !s.At.Before(start) {
				rx = append(rx, s.RXMbps)
				tx = append(tx, s.TXMbps)
			}
		}
		if len(rx) == 0 {
			continue
		}
		rxMean := stat.Mean(rx, nil)
		txMean := stat.Mean(tx, nil)
		out[k] = Sample{At: time.Now(), RXMbps: rxMean, TXMbps: txMean, Util: m.utilizationLocked(k, rxMean, txMean)}
	}
	return out
}

// Latest returns the most recent sample per edge.
func (m *Monitor) Latest() map[model.EdgeKey]Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[model.EdgeKey]Sample, len(m.state))
	for k, st := range m.state {
		if len(st.series) == 0 {
			continue
		}
		out[k] = st.series[len(st.series)-1]
	}
	return out
}

// History returns up to the last n samples for one edge (all of them when
// n <= 0), oldest first.
func (m *Monitor) History(key model.EdgeKey, n int) []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.state[key]
	if !ok {
		return nil
	}
	series := st.series
	if n > 0 && len(series) > n {
		series = series[len(series)-n:]
	}
	out := make([]Sample, len(series))
	copy(out, series)
	return out
}

// WriteCSV exports every edge's series as UTC iso-8601 timestamp rows,
// header time_iso,u,v,rx_mbps,tx_mbps,util. lastK limits each edge to its
// most recent K points; lastK <= 0 exports everything.
func (m *Monitor) WriteCSV(w io.Writer, lastK int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time_iso", "u", "v", "rx_mbps", "tx_mbps", "util"}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, st := range m.state {
		series := st.series
		if lastK > 0 && len(series) > lastK {
			series = series[len(series)-lastK:]
		}
		for _, s := range series {
			row := []string{
				s.At.UTC().Format(time.RFC3339),
				strconv.Itoa(int(k.U)),
				strconv.Itoa(int(k.V)),
				strconv.FormatFloat(s.RXMbps, 'f', 6, 64),
				strconv.FormatFloat(s.TXMbps, 'f', 6, 64),
				strconv.FormatFloat(s.Util, 'f', 6, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
