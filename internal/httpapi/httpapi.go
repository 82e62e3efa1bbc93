// Package httpapi is the HTTP status surface: a gin + gin-contrib/cors
// server exposing the last enacted plan, the live topology as a DOT
// graph, and a liveness probe.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/logging"
)

var log = logging.Component("httpapi")

// StateSource is the subset of internal/actuator.Actuator the server
// needs: the most recently enacted plan.
type StateSource interface {
	LastResult() model.PlanResult
}

// TopologySource is the subset of internal/topology.Viewer the server
// needs.
type TopologySource interface {
	DOT() string
}

// HealthCheck reports whether the controller's background loops are
// making progress. Typically internal/actuator.HealthTracker.Check bound
// to the running Actuator.
type HealthCheck func() bool

// Server is the status HTTP surface. The zero value is not usable;
// construct with New.
type Server struct {
	router *gin.Engine
	addr   string
}

// New builds a Server wired to state, topo, and health, listening on
// addr (e.g. ":8080") once Run is called.
func New(addr string, state StateSource, topo TopologySource, health HealthCheck) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/state", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, state.LastResult())
	})

	router.GET("/topology.dot", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "text/vnd.graphviz", []byte(topo.DOT()))
	})

	router.GET("/healthz", func(ctx *gin.Context) {
		if health() {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "stuck"})
	})

	return &Server{router: router, addr: addr}
}

// Run blocks serving on addr until the process exits or the listener
// fails. Intended to be called from its own goroutine by main.go.
func (s *Server) Run() {
	if err := s.router.Run(s.addr); err != nil {
		log.Error().Err(err).Str("addr", s.addr).Msg("http status server exited")
	}
}
