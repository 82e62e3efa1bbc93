package monitor

import (
	"testing"
	"time"

	"github.com/hybridsdn/controller/internal/model"
)

type fakeFacade struct {
	counters map[uint32]map[uint16]model.PortCounters
}

func (f *fakeFacade) PollPortStats(swid uint32) (map[uint16]model.PortCounters, error) {
	return f.counters[swid], nil
}

type fakeEdges struct {
	key          model.EdgeKey
	uPort, vPort uint16
}

func (f *fakeEdges) SnapshotEdges() []model.LiveEdge {
	return []model.LiveEdge{{Key: f.key, UPort: f.uPort, VPort: f.vPort, LastSeen: time.Now()}}
}

func TestFirstSampleYieldsZeroRate(t *testing.T) {
	key := model.EdgeKey{U: 1, V: 2}
	f := &fakeFacade{counters: map[uint32]map[uint16]model.PortCounters{
		1: {3: {RXBytes: 1000, TXBytes: 500}},
	}}
	m := New(f, &fakeEdges{key: key, uPort: 3, vPort: 5}, time.Second, nil)

	m.sample()

	latest := m.Latest()
	s, ok := latest[key]
	if !ok {
		t.Fatalf("expected a sample for the edge")
	}
	if s.RXMbps != 0 || s.TXMbps != 0 {
		t.Fatalf("first sample should have zero rate, got %+v", s)
	}
}

func TestSecondSampleComputesRate(t *testing.T) {
	key := model.EdgeKey{U: 1, V: 2}
	f := &fakeFacade{counters: map[uint32]map[uint16]model.PortCounters{
		1: {3: {RXBytes: 0, TXBytes: 0}},
	}}
	m := New(f, &fakeEdges{key: key, uPort: 3, vPort: 5}, time.Second, map[model.EdgeKey]float64{key: 100})

	m.sample()

	f.counters[1][3] = model.PortCounters{RXBytes: 1_000_000, TXBytes: 0}
	m.state[key].lastSampleAt = time.Now().Add(-1 * time.Second)
	m.sample()

	s := m.Latest()[key]
	if s.RXMbps <= 7 || s.RXMbps >= 9 {
		t.Fatalf("expected ~8 Mbps rx, got %v", s.RXMbps)
	}
	if s.Util <= 0 {
		t.Fatalf("expected positive utilization, got %v", s.Util)
	}
}

func TestDeltaClampedNeverNegative(t *testing.T) {
	if got := deltaClamped(5, 10); got != 0 {
		t.Fatalf("expected clamp to 0 for a counter that went backwards, got %d", got)
	}
}

func TestClamp(t *testing.T) {
	if clamp(1.5, 0, 1) != 1 {
		t.Fatalf("expected clamp to ceiling")
	}
	if clamp(-0.5, 0, 1) != 0 {
		t.Fatalf("expected clamp to floor")
	}
}
