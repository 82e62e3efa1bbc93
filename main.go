package main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hybridsdn/controller/internal/actuator"
	"github.com/hybridsdn/controller/internal/config"
	"github.com/hybridsdn/controller/internal/ctrl"
	"github.com/hybridsdn/controller/internal/httpapi"
	"github.com/hybridsdn/controller/internal/l2"
	"github.com/hybridsdn/controller/internal/loader"
	"github.com/hybridsdn/controller/internal/monitor"
	"github.com/hybridsdn/controller/internal/topology"
	"github.com/hybridsdn/controller/logging"
)

var log = logging.Get()

func main() {
	configFile := flag.String("config_file", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Err(err).Msg("could not load config")
		os.Exit(1)
	}

	// A single positional argument overrides the configured listen port.
	if flag.NArg() > 0 {
		port, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			log.Err(err).Str("arg", flag.Arg(0)).Msg("invalid port argument")
			os.Exit(1)
		}
		cfg.ListenPort = port
	}

	graph, err := (loader.JSONGraphSource{Path: cfg.GraphFile}).LoadGraph()
	if err != nil {
		log.Err(err).Msg("could not load static graph")
		os.Exit(1)
	}

	flows, err := (loader.CSVFlowSource{Path: cfg.FlowFile}).LoadFlows()
	if err != nil {
		log.Err(err).Msg("could not load flow demands")
		os.Exit(1)
	}

	facade := ctrl.New(cfg)

	learner := l2.New(facade)
	viewer := topology.New(facade, cfg.LLDPPeriod(), cfg.EdgeExpiry(), nil)

	facade.SetHooks(ctrl.Hooks{
		OnPacketIn:     learner.HandlePacketIn,
		OnLLDPObserved: viewer.HandleLLDPObservation,
	})

	if err := facade.Start(); err != nil {
		log.Err(err).Msg("could not start controller")
		os.Exit(1)
	}

	facade.SetLLDPPeriod(cfg.LLDPPeriod())
	facade.SetStatsPeriod(cfg.MonitorPeriod())

	mon := monitor.New(facade, viewer, cfg.MonitorPeriod(), graph.Capacity)

	act := actuator.New(facade, viewer, mon, graph, flows, actuator.Config{
		PathsPerPair:   cfg.PlannerPathsPerPair,
		MaxHops:        cfg.PlannerMaxHops,
		ForecastWindow: cfg.ForecastWindow,
		AlphaMin:       cfg.ForecastAlphaMin,
		AlphaMax:       cfg.ForecastAlphaMax,
		Gamma:          cfg.ForecastGamma,
		Threshold:      cfg.ForecastThreshold,
		SolverBudget:   cfg.SolverBudget(),
		PinFlowRoutes:  cfg.PlannerPinFlowRoutes,
	})

	viewer.Start()
	mon.Start()
	act.Start(cfg.PlannerPeriod())

	health := actuator.NewHealthTracker()
	status := httpapi.New(cfg.HTTPListenAddr, act, viewer, func() bool { return health.Check(act) })
	go status.Run()

	log.Info().Int("port", cfg.ListenPort).Msg("hybrid sdn controller running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	act.Stop()
	mon.Stop()
	viewer.Stop()
	facade.Stop()
}
