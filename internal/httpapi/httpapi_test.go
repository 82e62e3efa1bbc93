package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hybridsdn/controller/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeState struct{ result model.PlanResult }

func (f fakeState) LastResult() model.PlanResult { return f.result }

type fakeTopo struct{ dot string }

func (f fakeTopo) DOT() string { return f.dot }

func TestStateEndpointReturnsLastResult(t *testing.T) {
	s := New(":0", fakeState{result: model.PlanResult{Status: model.StatusOptimal, CycleSeq: 4}}, fakeTopo{}, func() bool { return true })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"optimal"`) {
		t.Fatalf("expected the status field in the body, got %q", rec.Body.String())
	}
}

func TestTopologyEndpointReturnsDOT(t *testing.T) {
	s := New(":0", fakeState{}, fakeTopo{dot: "digraph{}"}, func() bool { return true })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/topology.dot", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "digraph{}" {
		t.Fatalf("expected the raw DOT body, got %q", rec.Body.String())
	}
}

func TestHealthzReflectsHealthCheck(t *testing.T) {
	s := New(":0", fakeState{}, fakeTopo{}, func() bool { return false })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when unhealthy, got %d", rec.Code)
	}
}
