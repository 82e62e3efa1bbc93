package topology

import (
	"testing"
	"time"

	"github.com/hybridsdn/controller/internal/model"
)

type noopFacade struct{}

func (noopFacade) Switches() []model.SwitchInfo     { return nil }
func (noopFacade) SendLLDP(uint32, uint16) error     { return nil }

func TestTopologyLearning(t *testing.T) {
	v := New(noopFacade{}, time.Second, 10*time.Second, nil)

	v.HandleLLDPObservation(1, 3, 2, 5)

	edges := v.SnapshotEdges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	e := edges[0]
	if e.Key.U != 1 || e.Key.V != 2 || e.UPort != 3 || e.VPort != 5 {
		t.Fatalf("unexpected canonical edge: %+v", e)
	}
}

func TestTopologyLearningReverseOrder(t *testing.T) {
	v := New(noopFacade{}, time.Second, 10*time.Second, nil)

	v.HandleLLDPObservation(2, 5, 1, 3)

	edges := v.SnapshotEdges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	e := edges[0]
	if e.Key.U != 1 || e.Key.V != 2 || e.UPort != 3 || e.VPort != 5 {
		t.Fatalf("unexpected canonical edge after reverse report: %+v", e)
	}
}

func TestSelfLoopDropped(t *testing.T) {
	v := New(noopFacade{}, time.Second, 10*time.Second, nil)

	v.HandleLLDPObservation(1, 1, 1, 2)

	if edges := v.SnapshotEdges(); len(edges) != 0 {
		t.Fatalf("expected no edge for a self-loop, got %+v", edges)
	}
}

func TestEdgeExpires(t *testing.T) {
	v := New(noopFacade{}, time.Second, 10*time.Millisecond, nil)

	v.HandleLLDPObservation(1, 3, 2, 5)
	time.Sleep(20 * time.Millisecond)
	v.sweepExpired()

	if edges := v.SnapshotEdges(); len(edges) != 0 {
		t.Fatalf("expected edge to have expired, got %+v", edges)
	}
}
